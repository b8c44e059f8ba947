package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed free text length.
	MaxQueryLength  = 4096
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxWindow bounds page*pageSize; deeper pages go through browse.
	MaxWindow = 10000
)

// Sort orders results by a sortable field.
type Sort struct {
	Field string
	Desc  bool
}

// Request is a validated search query.
type Request struct {
	text     string
	filters  filter.Expression
	page     int
	pageSize int
	sort     *Sort
}

// New validates and normalizes search parameters.
// At least one of text or filters is required. Defaults: page=1, pageSize=20.
func New(text string, filters filter.Expression, page, pageSize int, sort *Sort) (Request, error) {
	text = strings.TrimSpace(text)
	if text == "" && filters.IsEmpty() {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(text) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page*pageSize > MaxWindow {
		return Request{}, fmt.Errorf("page %d with page_size %d exceeds result window (max %d)", page, pageSize, MaxWindow)
	}
	if sort != nil && sort.Field == "" {
		return Request{}, fmt.Errorf("sort field is required")
	}

	return Request{text: text, filters: filters, page: page, pageSize: pageSize, sort: sort}, nil
}

// Text returns the free text query (may be empty).
func (r *Request) Text() string { return r.text }

// HasText reports whether free text was supplied.
func (r *Request) HasText() bool { return r.text != "" }

// Filters returns the filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// PageSize returns the page size.
func (r *Request) PageSize() int { return r.pageSize }

// Offset returns the number of results skipped.
func (r *Request) Offset() int { return (r.page - 1) * r.pageSize }

// Sort returns the explicit sort, or nil for the default order.
func (r *Request) Sort() *Sort { return r.sort }
