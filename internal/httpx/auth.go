package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/vendor-backoffice/internal/apikey"
	"github.com/MikeMC777/vendor-backoffice/internal/ratelimit"
)

const (
	HeaderAPIKey = "X-API-Key"

	apiKeyCtxKey = "apiKey"
	legacyCtxKey = "legacyKey"
)

type KeyValidator interface {
	Validate(ctx context.Context, secret string) (*apikey.ApiKey, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, id string, limit int) (ratelimit.Result, error)
}

// LegacyKey holds the bcrypt hash of the static key used before per-client
// keys existed. The zero value accepts nothing.
type LegacyKey struct{ hash []byte }

func NewLegacyKey(plain string, cost int) (LegacyKey, error) {
	if plain == "" {
		return LegacyKey{}, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return LegacyKey{}, fmt.Errorf("hash legacy api key: %w", err)
	}
	return LegacyKey{hash: h}, nil
}

func (k LegacyKey) Matches(secret string) bool {
	return len(k.hash) > 0 && bcrypt.CompareHashAndPassword(k.hash, []byte(secret)) == nil
}

type Auth struct {
	Keys    KeyValidator
	Limiter RateLimiter
	Legacy  LegacyKey
	Log     *zap.Logger
	now     func() time.Time
}

func isPublic(path string) bool {
	return path == "/" || path == "/healthz" || strings.HasPrefix(path, "/swagger/")
}

// Middleware authenticates X-API-Key. Database keys are rate limited per key;
// the legacy key is not. A failing limiter store lets the request through.
func (a *Auth) Middleware() gin.HandlerFunc {
	now := a.now
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}
		secret := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPError{Error: "API key missing"})
			return
		}

		key, err := a.Keys.Validate(c.Request.Context(), secret)
		if err != nil {
			if a.Legacy.Matches(secret) {
				c.Set(legacyCtxKey, true)
				c.Next()
				return
			}
			if apikey.IsRefusal(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, HTTPError{Error: err.Error()})
				return
			}
			Fail(c, a.Log, err)
			return
		}
		c.Set(apiKeyCtxKey, key)

		res, err := a.Limiter.Allow(c.Request.Context(), key.ID, key.RateLimit)
		if err != nil {
			a.Log.Warn("rate limit store unavailable, letting request through",
				zap.String("apiKeyId", key.ID), zap.Error(err))
			c.Next()
			return
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(resetUnix(res.ResetAt), 10))
		if !res.Allowed {
			retry := res.RetryAfter(now())
			h.Set("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"message":    fmt.Sprintf("Too many requests. Limit is %d per minute, retry in %d seconds.", res.Limit, retry),
				"retryAfter": retry,
			})
			return
		}
		c.Next()
	}
}

func resetUnix(t time.Time) int64 {
	secs := t.Unix()
	if t.Nanosecond() > 0 {
		secs++
	}
	return secs
}

// APIKeyFrom returns the database key that authenticated the request, if any.
func APIKeyFrom(c *gin.Context) (*apikey.ApiKey, bool) {
	v, ok := c.Get(apiKeyCtxKey)
	if !ok {
		return nil, false
	}
	k, ok := v.(*apikey.ApiKey)
	return k, ok
}

// RequireScope lets through the legacy key and database keys holding scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(legacyCtxKey) {
			c.Next()
			return
		}
		if k, ok := APIKeyFrom(c); ok && k.HasScope(scope) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, HTTPError{Error: "insufficient scope: " + scope + " required"})
	}
}

// CallerID names the key behind the request for logs.
func CallerID(c *gin.Context) (string, bool) {
	if c.GetBool(legacyCtxKey) {
		return "legacy", true
	}
	if k, ok := APIKeyFrom(c); ok {
		return k.ID, true
	}
	return "", false
}
