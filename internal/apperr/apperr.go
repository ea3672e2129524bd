// Package apperr defines the error taxonomy shared by services and handlers.
//
// Every error built here unwraps to one of the kind sentinels, so callers can
// branch with errors.Is(err, apperr.ErrNotFound) without knowing which package
// produced it.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrIntegration = errors.New("integration failure")
)

type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func Validationf(format string, args ...any) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Integration marks a failed call to an external collaborator.
func Integration(target string, cause error) error {
	return &Error{kind: ErrIntegration, msg: target, cause: cause}
}

// Wrap keeps the kind of err but prefixes its message.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	for _, k := range []error{ErrValidation, ErrNotFound, ErrIntegration} {
		if errors.Is(err, k) {
			return &Error{kind: k, msg: msg, cause: err}
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsIntegration(err error) bool { return errors.Is(err, ErrIntegration) }
