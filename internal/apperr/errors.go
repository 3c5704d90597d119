package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a query failure for propagation policy decisions.
type Kind string

const (
	// KindInvalidInput marks requests rejected before any downstream I/O
	// (empty query, missing session id).
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindUpstreamUnavailable marks a fatal backend failure (embedding
	// provider, vector index, generation engine). Not retried by the core.
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"

	// KindCacheDegraded marks a cache or session-store failure that the
	// orchestrator recovers from locally. Never surfaced to callers.
	KindCacheDegraded Kind = "CACHE_DEGRADED"

	// KindDeliveryOverrun marks a streaming consumer that fell too far
	// behind; the stream is aborted and nothing is committed.
	KindDeliveryOverrun Kind = "DELIVERY_OVERRUN"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *AppError {
	return New(KindInvalidInput, message)
}

func UpstreamUnavailable(message string, err error) *AppError {
	return Wrap(KindUpstreamUnavailable, message, err)
}

func CacheDegraded(message string, err error) *AppError {
	return Wrap(KindCacheDegraded, message, err)
}

func DeliveryOverrun(message string) *AppError {
	return New(KindDeliveryOverrun, message)
}

// KindOf extracts the Kind from err, or "" when err is not an AppError.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
