// Package errs defines the failure kinds a conversation turn can run into.
// None of them is fatal: each one is handled inside the session that raised it.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind uint8

const (
	// KindUnknown is for unclassified errors.
	KindUnknown Kind = iota

	// KindOracleUnavailable covers transport, timeout and parse failures of the
	// understanding oracle. Recovered by the deterministic extractor.
	KindOracleUnavailable

	// KindImplausibleValue marks a dimension outside the sanity bounds.
	KindImplausibleValue

	// KindCatalogUnavailable means the catalog store could not be queried.
	KindCatalogUnavailable

	// KindAmbiguousSelection is input that maps to no shortlist entry or quantity.
	KindAmbiguousSelection

	// KindStockExceeded is a quantity above live stock.
	KindStockExceeded

	// KindInvalid is for malformed adapter input.
	KindInvalid

	// KindNotFound is for missing sessions or products.
	KindNotFound

	// KindInternal is for adapter-level failures that are not the user's fault.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindOracleUnavailable:
		return "oracle_unavailable"
	case KindImplausibleValue:
		return "implausible_value"
	case KindCatalogUnavailable:
		return "catalog_unavailable"
	case KindAmbiguousSelection:
		return "ambiguous_selection"
	case KindStockExceeded:
		return "stock_exceeded"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional operation tag and cause.
type Error struct {
	kind Kind
	op   string
	msg  string
	orig error
}

// New returns an error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{kind: kind, op: op, msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(err error, kind Kind, op string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, op: op, msg: kind.String(), orig: err}
}

// Errorf returns an error of the given kind with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{kind: kind, op: op, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := e.msg
	if e.op != "" {
		prefix = e.op + ": " + e.msg
	}
	if e.orig != nil {
		return prefix + ": " + e.orig.Error()
	}
	return prefix
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind.
func (e *Error) Kind() Kind { return e.kind }

// Op returns the operation tag.
func (e *Error) Op() string { return e.op }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status an adapter should answer with.
func HTTPStatus(k Kind) int {
	switch k {
	case KindInvalid, KindAmbiguousSelection:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStockExceeded:
		return http.StatusConflict
	case KindCatalogUnavailable, KindOracleUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
