package facetdex

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrInvalidSchema     = domain.ErrInvalidSchema
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrInvalidDocument   = domain.ErrInvalidDocument
	ErrCollectionBusy    = domain.ErrCollectionBusy
	ErrInvalidFilter     = domain.ErrInvalidFilter
	ErrEmptyQuery        = domain.ErrEmptyQuery
	ErrUnsupportedFormat = domain.ErrUnsupportedFormat
	ErrInvalidBatchSize  = domain.ErrInvalidBatchSize
	ErrNotImplemented    = domain.ErrNotImplemented
	ErrUnavailable       = db.ErrUnavailable

	// ErrImportFailed is returned when an import ends in the failed state.
	ErrImportFailed = errors.New("import failed")
)

var codeErrors = map[string]error{
	"validation_failed":         ErrInvalidSchema,
	"invalid_document":          ErrInvalidDocument,
	"invalid_filter":            ErrInvalidFilter,
	"empty_query":               ErrEmptyQuery,
	"unsupported_format":        ErrUnsupportedFormat,
	"invalid_batch_size":        ErrInvalidBatchSize,
	"collection_not_found":      ErrNotFound,
	"document_not_found":        ErrDocumentNotFound,
	"collection_already_exists": ErrAlreadyExists,
	"collection_busy":           ErrCollectionBusy,
	"engine_unavailable":        ErrUnavailable,
	"not_implemented":           ErrNotImplemented,
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("facetdex: %d %s: %s (field %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("facetdex: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code to its sentinel so errors.Is works across the wire.
func (e *APIError) Unwrap() error { return codeErrors[e.Code] }
