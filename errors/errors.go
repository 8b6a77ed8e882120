// Package errors provides error handling for the gallery engine.
//
// It re-exports github.com/cockroachdb/errors and adds the gallery error
// taxonomy. Every error surfaced by a request carries one of the sentinel
// marks below so callers can recover a Code:
//
//	if _, err := g.CreateResponse(req); err != nil {
//	    switch errors.CodeOf(err) {
//	    case errors.FilterError:
//	        // bad filter
//	    }
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
	Join         = crdb.Join
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Gallery sentinels. Wrap them with Wrapf to add context, or Mark a foreign
// error with one of them to classify it.
var (
	// ErrItemType indicates an unknown item type name
	ErrItemType = New("unknown item type")

	// ErrItemID indicates a malformed item id or an unusable root item
	ErrItemID = New("invalid item id")

	// ErrFilter indicates an unsupported property, comparator or value in a filter or sort
	ErrFilter = New("unsupported filter")

	// ErrConnection indicates there is no usable store connection
	ErrConnection = New("no store connection")

	// ErrQueryExecution indicates the store rejected a compiled query
	ErrQueryExecution = New("query execution failed")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// Code is the error code surfaced to gallery callers.
type Code int

const (
	NoError Code = iota
	ItemIDError
	ItemTypeError
	FilterError
	ConnectionError
	QueryExecutionError
	UnknownError
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "NoError"
	case ItemIDError:
		return "ItemIdError"
	case ItemTypeError:
		return "ItemTypeError"
	case FilterError:
		return "FilterError"
	case ConnectionError:
		return "ConnectionError"
	case QueryExecutionError:
		return "QueryExecutionError"
	default:
		return "UnknownError"
	}
}

// CodeOf classifies err by the gallery sentinel it carries.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return NoError
	case Is(err, ErrItemID):
		return ItemIDError
	case Is(err, ErrItemType):
		return ItemTypeError
	case Is(err, ErrFilter):
		return FilterError
	case Is(err, ErrConnection):
		return ConnectionError
	case Is(err, ErrQueryExecution):
		return QueryExecutionError
	default:
		return UnknownError
	}
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}
