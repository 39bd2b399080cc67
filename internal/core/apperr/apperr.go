// Package apperr defines the request-local failure kinds surfaced by the engine.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrReferenceNotFound  = errors.New("reference not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrResolutionMismatch = errors.New("resolution mismatch")
	ErrConfiguration      = errors.New("configuration error")
)

const (
	KindReferenceNotFound  = "reference_not_found"
	KindInvalidInput       = "invalid_input"
	KindResolutionMismatch = "resolution_mismatch"
	KindConfiguration      = "configuration_error"
	KindInternal           = "internal"
)

func NotFound(format string, args ...any) error {
	return wrap(ErrReferenceNotFound, format, args...)
}

func Invalid(format string, args ...any) error {
	return wrap(ErrInvalidInput, format, args...)
}

func Mismatch(format string, args ...any) error {
	return wrap(ErrResolutionMismatch, format, args...)
}

func Config(format string, args ...any) error {
	return wrap(ErrConfiguration, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind maps an error to a stable kind string; unknown errors are internal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrReferenceNotFound):
		return KindReferenceNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrResolutionMismatch):
		return KindResolutionMismatch
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}
