package search

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// --- Mocks ---

// memRepo evaluates text as a case-insensitive word match over text fields
// and filters as exact matches, enough to check the service end to end.
type memRepo struct {
	ids  []string
	docs []domdoc.Fields
	err  error
	got  *request.Request
}

func (m *memRepo) add(id string, kv ...any) {
	f := domdoc.NewFields(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		v, err := value.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		f.Set(kv[i].(string), v)
	}
	m.ids = append(m.ids, id)
	m.docs = append(m.docs, f)
}

func (m *memRepo) Search(_ context.Context, col domcol.Collection, req request.Request) (result.Page, error) {
	m.got = &req
	if m.err != nil {
		return result.Page{}, m.err
	}
	terms := Terms(req.Text())
	var hits []result.Result
	for i, doc := range m.docs {
		if len(terms) > 0 && !textMatch(col, doc, terms) {
			continue
		}
		if !filterMatch(doc, req.Filters()) {
			continue
		}
		hits = append(hits, result.New(m.ids[i], 1, doc))
	}
	return result.Page{Results: hits, Total: int64(len(hits)), Page: req.Page(), PageSize: req.PageSize()}, nil
}

func textMatch(col domcol.Collection, doc domdoc.Fields, terms []string) bool {
	for _, f := range col.TextFields() {
		v, ok := doc.Get(f.Name())
		if !ok {
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(v.String())) {
			if slices.Contains(terms, w) {
				return true
			}
		}
	}
	return false
}

func filterMatch(doc domdoc.Fields, expr filter.Expression) bool {
	for _, c := range expr.Must() {
		v, ok := doc.Get(c.Key())
		if !ok || v.String() != c.Match().String() {
			return false
		}
	}
	return true
}

type mockColls struct {
	col domcol.Collection
	err error
}

func (m *mockColls) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.col, m.err
}

func cropsCollection() domcol.Collection {
	return domcol.Reconstruct("crops", []field.Field{
		field.Reconstruct("item", field.Text),
		field.Reconstruct("area", field.Keyword),
		field.Reconstruct("year", field.Integer),
		field.Reconstruct("notes", field.Text),
	}, 0, 0, 1)
}

func newRequest(t *testing.T, text string, conds ...filter.Condition) request.Request {
	t.Helper()
	expr, err := filter.NewExpression(conds...)
	if err != nil {
		t.Fatalf("filter.NewExpression: %v", err)
	}
	req, err := request.New(text, expr, 0, 0, nil)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

func match(t *testing.T, key string, v any) filter.Condition {
	t.Helper()
	val, err := value.FromAny(v)
	if err != nil {
		t.Fatal(err)
	}
	c, err := filter.NewMatch(key, val)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// --- Tests ---

func TestSearch_WheatInTunisia(t *testing.T) {
	repo := &memRepo{}
	repo.add("1", "item", "Wheat", "area", "Tunisia", "year", 2020)
	repo.add("2", "item", "Wheat", "area", "Morocco", "year", 2021)
	repo.add("3", "item", "Rice", "area", "Tunisia", "year", 2020)
	svc := New(repo, &mockColls{col: cropsCollection()})

	page, err := svc.Search(context.Background(), "crops", newRequest(t, "wheat", match(t, "area", "Tunisia")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || len(page.Results) != 1 {
		t.Fatalf("total = %d, results = %d", page.Total, len(page.Results))
	}
	r := page.Results[0]
	if r.ID() != "1" {
		t.Errorf("id = %q, want 1", r.ID())
	}
	frags := r.Highlights()["item"]
	if len(frags) != 1 || frags[0] != "<em>Wheat</em>" {
		t.Errorf("highlights = %v", r.Highlights())
	}
	if _, ok := r.Highlights()["notes"]; ok {
		t.Error("fields without matches carry no highlights")
	}
}

func TestSearch_FilterOnlyHasNoHighlights(t *testing.T) {
	repo := &memRepo{}
	repo.add("1", "item", "Wheat", "area", "Tunisia")
	svc := New(repo, &mockColls{col: cropsCollection()})

	page, err := svc.Search(context.Background(), "crops", newRequest(t, "", match(t, "area", "Tunisia")))
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Results) != 1 || page.Results[0].Highlights() != nil {
		t.Errorf("results = %+v", page.Results)
	}
}

func TestSearch_CollectionNotFound(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo, &mockColls{err: domain.ErrNotFound})

	_, err := svc.Search(context.Background(), "nope", newRequest(t, "wheat"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if repo.got != nil {
		t.Error("repo must not be called")
	}
}

func TestSearch_RepoError(t *testing.T) {
	repo := &memRepo{err: domain.ErrInvalidFilter}
	svc := New(repo, &mockColls{col: cropsCollection()})

	_, err := svc.Search(context.Background(), "crops", newRequest(t, "wheat"))
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"wheat", []string{"wheat"}},
		{"Wheat barley WHEAT", []string{"wheat", "barley"}},
		{"durum-wheat (spring)", []string{"durum", "wheat", "spring"}},
		{"rice -paddy", []string{"rice"}},
		{"@item:(wheat)", []string{"item", "wheat"}},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Terms(tt.query); !slices.Equal(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFragments(t *testing.T) {
	h := DefaultHighlighter()
	tests := []struct {
		name  string
		text  string
		terms []string
		want  []string
	}{
		{
			name:  "single word",
			text:  "Wheat",
			terms: []string{"wheat"},
			want:  []string{"<em>Wheat</em>"},
		},
		{
			name:  "window of five words",
			text:  "a b c d e f g wheat h i j k l m n",
			terms: []string{"wheat"},
			want:  []string{"…c d e f g <em>wheat</em> h i j k l…"},
		},
		{
			name:  "overlapping windows merge",
			text:  "wheat a b wheat c",
			terms: []string{"wheat"},
			want:  []string{"<em>wheat</em> a b <em>wheat</em> c"},
		},
		{
			name:  "punctuation and prefix",
			text:  "Harvested wheats, mostly.",
			terms: []string{"wheat"},
			want:  []string{"Harvested <em>wheats,</em> mostly."},
		},
		{
			name:  "escaped",
			text:  "<b>wheat</b> & rye",
			terms: []string{"rye"},
			want:  []string{"&lt;b&gt;wheat&lt;/b&gt; &amp; <em>rye</em>"},
		},
		{
			name:  "no match",
			text:  "barley and oats",
			terms: []string{"wheat"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Fragments(tt.text, tt.terms)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Fragments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFragments_AtMostThree(t *testing.T) {
	words := make([]string, 0, 100)
	for i := range 100 {
		if i%20 == 0 {
			words = append(words, "wheat")
		} else {
			words = append(words, "x")
		}
	}
	got := DefaultHighlighter().Fragments(strings.Join(words, " "), []string{"wheat"})
	if len(got) != DefaultMaxFragments {
		t.Fatalf("got %d fragments, want %d", len(got), DefaultMaxFragments)
	}
	for _, f := range got {
		if strings.Count(f, "<em>") != 1 {
			t.Errorf("fragment %q should hold one match", f)
		}
	}
}
