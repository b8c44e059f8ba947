package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

func areaFilter(t *testing.T) filter.Expression {
	t.Helper()
	c, err := filter.NewMatch("area", value.StringOf("Tunisia"))
	if err != nil {
		t.Fatal(err)
	}
	e, err := filter.NewExpression(c)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNew_Defaults(t *testing.T) {
	r, err := New("  wheat ", filter.Expression{}, 0, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Text() != "wheat" {
		t.Errorf("Text() = %q", r.Text())
	}
	if r.Page() != 1 || r.PageSize() != DefaultPageSize {
		t.Errorf("Page()=%d PageSize()=%d", r.Page(), r.PageSize())
	}
	if r.Offset() != 0 {
		t.Errorf("Offset() = %d", r.Offset())
	}
	if r.Sort() != nil {
		t.Error("Sort() should default to nil")
	}
}

func TestNew_EmptyQueryRejected(t *testing.T) {
	_, err := New("   ", filter.Expression{}, 1, 10, nil)
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestNew_FiltersOnly(t *testing.T) {
	r, err := New("", areaFilter(t), 3, 10, &Sort{Field: "year", Desc: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasText() {
		t.Error("HasText() = true")
	}
	if r.Offset() != 20 {
		t.Errorf("Offset() = %d, want 20", r.Offset())
	}
	if r.Sort().Field != "year" || !r.Sort().Desc {
		t.Errorf("Sort() = %+v", r.Sort())
	}
}

func TestNew_Limits(t *testing.T) {
	r, err := New("x", filter.Expression{}, 1, 1000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.PageSize() != MaxPageSize {
		t.Errorf("PageSize() = %d, want clamp to %d", r.PageSize(), MaxPageSize)
	}

	if _, err := New("x", filter.Expression{}, 101, 100, nil); err == nil {
		t.Error("expected window error")
	}
	if _, err := New(strings.Repeat("a", MaxQueryLength+1), filter.Expression{}, 1, 10, nil); err == nil {
		t.Error("expected query length error")
	}
	if _, err := New("x", filter.Expression{}, 1, 10, &Sort{}); err == nil {
		t.Error("expected sort field error")
	}
}
