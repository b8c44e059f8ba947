package facetdex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// FacetService reads facet tables of a collection.
type FacetService struct {
	c          *Client
	collection string
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

// List returns the tables of every tracked field. limit caps the values per
// table; 0 uses the server default.
func (s *FacetService) List(ctx context.Context, limit int) (_ []FacetTable, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("facet.list", start, err) }()

	var resp struct {
		Items []FacetTable `json:"items"`
	}
	if _, err := s.c.doJSON(ctx, http.MethodGet,
		collectionPath(s.collection, "facets"), limitQuery(limit), nil, &resp); err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}
	return resp.Items, nil
}

// Get returns the table of one field.
func (s *FacetService) Get(ctx context.Context, field string, limit int) (_ FacetTable, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("facet.get", start, err) }()

	var table FacetTable
	if _, err := s.c.doJSON(ctx, http.MethodGet,
		collectionPath(s.collection, "facets", field), limitQuery(limit), nil, &table); err != nil {
		return FacetTable{}, fmt.Errorf("get facet: %w", err)
	}
	return table, nil
}
