package result

import "github.com/kailas-cloud/facetdex/internal/domain/document"

// Result is a single search hit.
type Result struct {
	id         string
	score      float64
	fields     document.Fields
	highlights map[string][]string
}

// New creates a search result.
func New(id string, score float64, fields document.Fields) Result {
	return Result{id: id, score: score, fields: fields}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score (0 when sorted by a field).
func (r *Result) Score() float64 { return r.score }

// Fields returns the stored document fields.
func (r *Result) Fields() document.Fields { return r.fields }

// Highlights returns marked fragments per text field.
func (r *Result) Highlights() map[string][]string { return r.highlights }

// SetHighlights attaches highlight fragments.
func (r *Result) SetHighlights(h map[string][]string) { r.highlights = h }

// Page is one page of search results with the exact match count.
type Page struct {
	Results  []Result
	Total    int64
	Page     int
	PageSize int
}
