package search

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

func TestBuildQuery_TextAndFilters(t *testing.T) {
	req := newRequest(t, "wheat", nil,
		match(t, "area", value.StringOf("Tunisia")),
		match(t, "item", value.StringOf("Wheat")),
		match(t, "organic", value.StringOf("yes")),
	)

	q, err := BuildQuery(testCollection(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.IndexName != "facetdex:crops:idx" || q.Text != "wheat" || !q.WithScores {
		t.Errorf("query = %+v", q)
	}
	if !slices.Equal(q.TextFields, []string{"item"}) {
		t.Errorf("text fields = %v", q.TextFields)
	}
	if q.SortBy != "" {
		t.Errorf("relevance order expected, got SortBy %q", q.SortBy)
	}

	want := []db.Filter{
		{Field: "area", Kind: db.FilterTag, Tag: "Tunisia"},
		{Field: "item__exact", Kind: db.FilterTag, Tag: "Wheat"},
		{Field: "organic", Kind: db.FilterTag, Tag: "true"},
	}
	if len(q.Filters) != len(want) {
		t.Fatalf("filters = %+v", q.Filters)
	}
	for i := range want {
		if q.Filters[i] != want[i] {
			t.Errorf("filter %d = %+v, want %+v", i, q.Filters[i], want[i])
		}
	}
}

func TestBuildQuery_NumericAndDate(t *testing.T) {
	req := newRequest(t, "", nil,
		match(t, "year", value.StringOf("2020")),
		between(t, "value", value.IntOf(10), value.NullValue()),
		between(t, "reported", value.StringOf("2020-01-01"), value.StringOf("2020-01-02")),
	)

	q, err := BuildQuery(testCollection(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.SortBy != "__seq" || q.SortDesc || q.WithScores {
		t.Errorf("expected insertion order without scores, got %+v", q)
	}

	year := q.Filters[0]
	if year.Kind != db.FilterNumeric || *year.Min != 2020 || *year.Max != 2020 {
		t.Errorf("year filter = %+v", year)
	}
	val := q.Filters[1]
	if *val.Min != 10 || val.Max != nil {
		t.Errorf("value filter = %+v", val)
	}
	rep := q.Filters[2]
	if *rep.Min != 1577836800000 || *rep.Max != 1577923200000 {
		t.Errorf("reported filter = %v..%v", *rep.Min, *rep.Max)
	}
}

func TestBuildQuery_Sort(t *testing.T) {
	q, err := BuildQuery(testCollection(), newRequest(t, "wheat", &request.Sort{Field: "year", Desc: true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.SortBy != "year" || !q.SortDesc {
		t.Errorf("sort = %s desc=%v", q.SortBy, q.SortDesc)
	}

	q, err = BuildQuery(testCollection(), newRequest(t, "wheat", &request.Sort{Field: ScoreSort}))
	if err != nil || q.SortBy != "" {
		t.Errorf("relevance sort = %+v, %v", q, err)
	}
}

func TestBuildQuery_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  request.Request
	}{
		{"unknown field", newRequest(t, "x", nil, match(t, "missing", value.StringOf("a")))},
		{"range on keyword", newRequest(t, "x", nil, between(t, "area", value.StringOf("a"), value.StringOf("b")))},
		{"bad number", newRequest(t, "x", nil, match(t, "year", value.StringOf("recent")))},
		{"bad date", newRequest(t, "x", nil, between(t, "reported", value.StringOf("yesterday"), value.NullValue()))},
		{"sort on text", newRequest(t, "x", &request.Sort{Field: "item"})},
		{"relevance without text", newRequest(t, "", &request.Sort{Field: ScoreSort}, match(t, "area", value.StringOf("a")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuery(testCollection(), tt.req)
			if !errors.Is(err, domain.ErrInvalidFilter) {
				t.Fatalf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestSearch_HydratesResults(t *testing.T) {
	ms := &mockStore{searchFn: func(_ context.Context, q *db.Query) (*db.SearchResult, error) {
		if q.Offset != 0 || q.Limit != 10 {
			t.Errorf("paging = %d/%d", q.Offset, q.Limit)
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{{
			Key:    "facetdex:crops:r1",
			Score:  1.5,
			Fields: map[string]string{"item": "Wheat", "area": "Tunisia", "year": "2020", "__seq": "1"},
		}}}, nil
	}}
	repo := New(ms)

	page, err := repo.Search(context.Background(), testCollection(),
		newRequest(t, "wheat", nil, match(t, "area", value.StringOf("Tunisia"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || len(page.Results) != 1 || page.Page != 1 || page.PageSize != 10 {
		t.Fatalf("page = %+v", page)
	}
	r := page.Results[0]
	if r.ID() != "r1" || r.Score() != 1.5 {
		t.Errorf("result = %s %v", r.ID(), r.Score())
	}
	if v, _ := r.Fields().Get("year"); !v.Equal(value.IntOf(2020)) {
		t.Errorf("year = %v", v)
	}
}

func TestSearch_MissingIndex(t *testing.T) {
	repo := New(&mockStore{searchFn: func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return nil, db.ErrIndexNotFound
	}})
	_, err := repo.Search(context.Background(), testCollection(), newRequest(t, "wheat", nil))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
