// Package errors is the error toolkit for ogdviz.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, wrapping and user hints from a single import, and defines the
// sentinel errors the dashboard pipeline branches on.
//
//	if err := client.Fetch(ctx, d); err != nil {
//	    return errors.Wrapf(err, "fetch %s", d.CacheKey())
//	}
//
//	if errors.Is(err, errors.ErrSuperseded) {
//	    // a newer visualize call owns the view
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// Hints and details surface in CLI output and API error bodies.
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

var AssertionFailedf = crdb.AssertionFailedf

// Sentinels. Wrap them to add context; test with errors.Is.
var (
	// ErrNotFound indicates a cache key, visualizer or game that does not exist.
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a request that failed validation.
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates a duplicate name or key.
	ErrConflict = New("conflict")

	// ErrServiceUnavailable indicates the upstream data service could not be reached
	// or answered with a non-SUCCESS envelope.
	ErrServiceUnavailable = New("service unavailable")

	// ErrTimeout indicates an operation ran past its deadline.
	ErrTimeout = New("operation timed out")

	// ErrMalformedPayload indicates a stored or fetched value that does not parse.
	ErrMalformedPayload = New("malformed payload")

	// ErrSuperseded indicates a fetch whose result arrived after a newer request took over.
	ErrSuperseded = New("superseded")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsServiceUnavailableError reports whether err is or wraps ErrServiceUnavailable.
func IsServiceUnavailableError(err error) bool {
	return err != nil && Is(err, ErrServiceUnavailable)
}

// IsSupersededError reports whether err is or wraps ErrSuperseded.
func IsSupersededError(err error) bool {
	return err != nil && Is(err, ErrSuperseded)
}

// NewNotFoundError creates an error marked as ErrNotFound.
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidRequestError creates an error marked as ErrInvalidRequest.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}
