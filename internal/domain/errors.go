package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidSchema signals an invalid schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a record whose values do not fit the collection schema.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrCollectionBusy signals that another import holds the collection lock.
	ErrCollectionBusy = errors.New("collection busy")
	// ErrInvalidFilter signals a malformed or unsupported search filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrEmptyQuery signals a search request with neither free text nor filters.
	ErrEmptyQuery = errors.New("empty query")
	// ErrUnsupportedFormat signals an import file format the pipeline cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidBatchSize signals a batch size outside the configured bounds.
	ErrInvalidBatchSize = errors.New("invalid batch size")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// FieldError pins a validation failure to one field of a request.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError creates a field-level validation error.
func NewFieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
