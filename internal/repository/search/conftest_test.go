package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func testCollection() domcol.Collection {
	return domcol.Reconstruct("crops", []field.Field{
		field.Reconstruct("item", field.Text),
		field.Reconstruct("area", field.Keyword),
		field.Reconstruct("year", field.Integer),
		field.Reconstruct("value", field.Double),
		field.Reconstruct("organic", field.Boolean),
		field.Reconstruct("reported", field.Date),
	}, 1, 1, 1)
}

func match(t *testing.T, key string, v value.Value) filter.Condition {
	t.Helper()
	c, err := filter.NewMatch(key, v)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return c
}

func between(t *testing.T, key string, gte, lte value.Value) filter.Condition {
	t.Helper()
	r, err := filter.NewRangeFilter(gte, lte)
	if err != nil {
		t.Fatalf("NewRangeFilter: %v", err)
	}
	c, err := filter.NewRange(key, r)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return c
}

func newRequest(t *testing.T, text string, sort *request.Sort, conds ...filter.Condition) request.Request {
	t.Helper()
	expr, err := filter.NewExpression(conds...)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	req, err := request.New(text, expr, 1, 10, sort)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}
