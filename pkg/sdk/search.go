package facetdex

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Range bounds a numeric or date filter. Nil bounds are open.
type Range struct {
	GTE any `json:"gte,omitempty"`
	LTE any `json:"lte,omitempty"`
}

// SearchBuilder is a fluent builder for search queries.
type SearchBuilder struct {
	c          *Client
	collection string

	query    string
	filters  map[string]any
	page     int
	pageSize int
	sort     *searchSort
}

type searchSort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type searchBody struct {
	Query    string         `json:"query,omitempty"`
	Filters  map[string]any `json:"filters,omitempty"`
	Page     int            `json:"page,omitempty"`
	PageSize int            `json:"page_size,omitempty"`
	Sort     *searchSort    `json:"sort,omitempty"`
}

// Query sets the free-text query.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

func (b *SearchBuilder) filter(key string, v any) *SearchBuilder {
	if b.filters == nil {
		b.filters = make(map[string]any)
	}
	b.filters[key] = v
	return b
}

// Where adds an exact-match filter. A later filter on the same key replaces it.
func (b *SearchBuilder) Where(key string, value any) *SearchBuilder {
	return b.filter(key, value)
}

// Between adds an inclusive range filter; pass nil for an open bound.
func (b *SearchBuilder) Between(key string, gte, lte any) *SearchBuilder {
	return b.filter(key, Range{GTE: gte, LTE: lte})
}

// Page selects a 1-based page and its size.
func (b *SearchBuilder) Page(page, size int) *SearchBuilder {
	b.page = page
	b.pageSize = size
	return b
}

// SortBy orders results by a sortable field.
func (b *SearchBuilder) SortBy(field string, desc bool) *SearchBuilder {
	order := "asc"
	if desc {
		order = "desc"
	}
	b.sort = &searchSort{Field: field, Order: order}
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { b.c.obs.observe("search", start, err) }()

	body := searchBody{
		Query:    b.query,
		Filters:  b.filters,
		Page:     b.page,
		PageSize: b.pageSize,
		Sort:     b.sort,
	}
	var page SearchPage
	if _, err := b.c.doJSON(ctx, http.MethodPost, collectionPath(b.collection, "search"), nil, body, &page); err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}
