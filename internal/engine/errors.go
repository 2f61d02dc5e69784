package engine

import (
	"errors"
	"fmt"
)

// QueryError represents an error detected while preparing or running a
// query.
//
// Query errors include:
//   - Parse failures: the where clause is not in the query language
//   - Unknown type: the viewing type is not readable
//   - Resolution failures: a nested reference path could not be run
//   - Backend failures: the chosen backend rejected or failed the query
//
// QueryError wraps the underlying error for errors.Is and errors.As.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Query is the where clause as given, if any.
	Query string

	// Err is the underlying cause.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeParse indicates the where clause could not be parsed.
	ErrCodeParse QueryErrorCode = "PARSE"

	// ErrCodeUnknownType indicates the viewing type is missing or unreadable.
	ErrCodeUnknownType QueryErrorCode = "UNKNOWN_TYPE"

	// ErrCodeResolution indicates dependent resolution failed.
	ErrCodeResolution QueryErrorCode = "RESOLUTION"

	// ErrCodeBackend indicates the store or index failed.
	ErrCodeBackend QueryErrorCode = "BACKEND"
)

// ErrInvalidNode is wrapped by SaveNodes when a node does not conform to its
// type.
var ErrInvalidNode = errors.New("invalid node")

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Query != "" {
		msg += fmt.Sprintf(" (query=%q)", e.Query)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

// HasCode returns true if err is a QueryError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

func newParseError(query string, err error) *QueryError {
	return &QueryError{Code: ErrCodeParse, Message: "invalid where clause", Query: query, Err: err}
}

func newResolutionError(query string, err error) *QueryError {
	return &QueryError{Code: ErrCodeResolution, Message: "reference path resolution failed", Query: query, Err: err}
}

func newBackendError(backend Backend, query string, err error) *QueryError {
	return &QueryError{Code: ErrCodeBackend, Message: fmt.Sprintf("%s backend failed", backend), Query: query, Err: err}
}
