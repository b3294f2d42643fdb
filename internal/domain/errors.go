package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaUnavailable signals that the field catalog could not be fetched.
	ErrSchemaUnavailable = errors.New("schema unavailable")
	// ErrValidation signals malformed filter input. The request is never sent.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidNumber signals a numeric filter that is not a finite positive number.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrEmptyQuery signals a request with neither query text nor active filters.
	ErrEmptyQuery = errors.New("empty query")
	// ErrSearchFailed signals a transport or server error on search.
	ErrSearchFailed = errors.New("search failed")
	// ErrExportFailed signals a transport or server error on export.
	ErrExportFailed = errors.New("export failed")
	// ErrSuperseded signals that a newer operation of the same kind replaced this one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrUnsupportedFormat signals an export format other than csv or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNotFound signals a missing saved filter.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes why a filter state could not become a request.
// Field is empty for request-level failures such as an empty query.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrValidation.Error(), e.Field, e.Reason)
}

// Unwrap exposes both ErrValidation and the specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NewInvalidNumber reports a numeric field whose raw input failed coercion.
func NewInvalidNumber(field string, raw any) error {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("%v is not a positive number", raw),
		Err:    ErrInvalidNumber,
	}
}

// NewEmptyQuery reports a request with no query text and no active filter.
func NewEmptyQuery() error {
	return &ValidationError{
		Reason: "query text or at least one filter is required",
		Err:    ErrEmptyQuery,
	}
}

// SearchFailedError carries the transport failure of a search verbatim.
type SearchFailedError struct {
	Err error
}

func (e *SearchFailedError) Error() string { return e.Err.Error() }

// Unwrap exposes ErrSearchFailed and the transport error.
func (e *SearchFailedError) Unwrap() []error { return []error{ErrSearchFailed, e.Err} }

// ExportFailedError carries the server message of a failed export.
type ExportFailedError struct {
	Format  string
	Message string
	Err     error
}

func (e *ExportFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrExportFailed.Error(), e.Message)
}

// Unwrap exposes ErrExportFailed and the transport error.
func (e *ExportFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExportFailed}
	}
	return []error{ErrExportFailed, e.Err}
}
