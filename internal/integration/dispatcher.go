// Package integration talks to the services the vendor API depends on but
// does not own: inventory, factory, finance and audit. Every call goes
// through a Dispatcher that bounds it with a timeout and a small retry
// budget; callers decide whether a failure matters.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
	"github.com/MikeMC777/vendor-backoffice/internal/config"
)

// ErrNotConfigured is returned when a collaborator has no API key.
var ErrNotConfigured = errors.New("integration not configured")

// Policy bounds one logical call.
type Policy struct {
	Timeout  time.Duration // per attempt
	Attempts int
	Delay    time.Duration // between attempts
	RetryOn  func(error) bool
}

var (
	// InventoryPolicy is used for inventory and factory: one retry, only when
	// the request never got an answer.
	InventoryPolicy = Policy{Timeout: 5 * time.Second, Attempts: 2, RetryOn: IsTransport}
	FinancePolicy   = Policy{Timeout: 3 * time.Second, Attempts: 2, Delay: 250 * time.Millisecond, RetryOn: Always}
	AuditPolicy     = Policy{Timeout: 5 * time.Second, Attempts: 1}
)

// StatusError is a non-2xx answer from a collaborator.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// IsTransport reports whether err is a timeout or a network failure.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func Always(error) bool { return true }

// Request is one call to a collaborator, relative to its base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type Dispatcher struct {
	target  string
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewDispatcher(target string, cfg config.ServiceConfig, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		target:  target,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{},
		log:     log.With(zap.String("target", target)),
	}
}

func (d *Dispatcher) Target() string { return d.target }

// Configured reports whether an API key was provided for the collaborator.
func (d *Dispatcher) Configured() bool { return d.apiKey != "" }

func (d *Dispatcher) Logger() *zap.Logger { return d.log }

// Call runs req under p. On success the "data" member of the response
// envelope is decoded into out (when out is not nil). The returned error,
// if any, is the last attempt's and is classified as an integration failure.
func (d *Dispatcher) Call(ctx context.Context, p Policy, req Request, out any) error {
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return apperr.Integration(d.target, fmt.Errorf("encode body: %w", err))
		}
		payload = b
	}

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = d.once(ctx, p.Timeout, req, payload, out)
		if lastErr == nil {
			return nil
		}
		d.log.Warn("integration call failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == attempts || p.RetryOn == nil || !p.RetryOn(lastErr) || ctx.Err() != nil {
			break
		}
		if p.Delay > 0 {
			t := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return apperr.Integration(d.target, ctx.Err())
			case <-t.C:
			}
		}
	}
	return apperr.Integration(d.target, lastErr)
}

func (d *Dispatcher) once(ctx context.Context, timeout time.Duration, req Request, payload []byte, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u := d.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return err
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("X-API-Key", d.apiKey)

	res, err := d.http.Do(hr)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		return &StatusError{StatusCode: res.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	env := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
