package chi

import (
	"encoding/json"
	"time"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
)

// ErrorResponseCode is the machine-readable error code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest              ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized            ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed        ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidDocument         ErrorResponseCode = "invalid_document"
	ErrorResponseCodeInvalidFilter           ErrorResponseCode = "invalid_filter"
	ErrorResponseCodeEmptyQuery              ErrorResponseCode = "empty_query"
	ErrorResponseCodeUnsupportedFormat       ErrorResponseCode = "unsupported_format"
	ErrorResponseCodeInvalidBatchSize        ErrorResponseCode = "invalid_batch_size"
	ErrorResponseCodeCollectionNotFound      ErrorResponseCode = "collection_not_found"
	ErrorResponseCodeDocumentNotFound        ErrorResponseCode = "document_not_found"
	ErrorResponseCodeCollectionAlreadyExists ErrorResponseCode = "collection_already_exists"
	ErrorResponseCodeCollectionBusy          ErrorResponseCode = "collection_busy"
	ErrorResponseCodeEngineUnavailable       ErrorResponseCode = "engine_unavailable"
	ErrorResponseCodeNotImplemented          ErrorResponseCode = "not_implemented"
	ErrorResponseCodeInternalError           ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
}

// FieldDefinition is one schema entry.
type FieldDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name        string            `json:"name"`
	Fields      []FieldDefinition `json:"fields"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Creator     string            `json:"creator,omitempty"`
}

// AddFieldsRequest is the body of POST /collections/{collection}/fields.
type AddFieldsRequest struct {
	Fields []FieldDefinition `json:"fields"`
}

// Collection describes a collection with its metadata and index health.
type Collection struct {
	Name        string            `json:"name"`
	Fields      []FieldDefinition `json:"fields,omitempty"`
	Revision    int               `json:"revision,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Creator     string            `json:"creator,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
	Health      domcol.Health     `json:"health,omitempty"`
	Stats       *domcol.Stats     `json:"stats,omitempty"`
}

// CollectionCursorListResponse is one page of GET /collections.
type CollectionCursorListResponse struct {
	Items      []Collection `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

// FacetListResponse is the body of GET /collections/{collection}/facets.
type FacetListResponse struct {
	Items []facet.Table `json:"items"`
}

// SearchSort selects the result order.
type SearchSort struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// SearchRequest is the body of POST /collections/{collection}/search.
// Filter values are JSON scalars or {"gte": a, "lte": b} range objects.
type SearchRequest struct {
	Query    string                     `json:"query,omitempty"`
	Filters  map[string]json.RawMessage `json:"filters,omitempty"`
	Page     int                        `json:"page,omitempty"`
	PageSize int                        `json:"page_size,omitempty"`
	Sort     *SearchSort                `json:"sort,omitempty"`
}

// SearchResultItem is one hit.
type SearchResultItem struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Fields     domdoc.Fields       `json:"fields"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchResultListResponse is the body of a search response.
type SearchResultListResponse struct {
	Items    []SearchResultItem `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// DocumentRequest is the body of PUT and PATCH on a document. In a PATCH a
// null value removes the field.
type DocumentRequest struct {
	Fields domdoc.Fields `json:"fields"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID     string        `json:"id"`
	Fields domdoc.Fields `json:"fields"`
}

// DocumentCursorListResponse is one browse page.
type DocumentCursorListResponse struct {
	Items      []DocumentResponse `json:"items"`
	NextCursor *string            `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
}

// ImportSummaryResponse is the single-response form of an import: the
// payload of the final done event.
type ImportSummaryResponse = importjob.Data

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
