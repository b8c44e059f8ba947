package filter

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

func TestNewMatch(t *testing.T) {
	c, err := NewMatch("area", value.StringOf("Tunisia"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsMatch() || c.IsRange() {
		t.Error("expected match condition")
	}
	if c.Key() != "area" || c.Match().String() != "Tunisia" {
		t.Errorf("got %q=%q", c.Key(), c.Match())
	}

	if _, err := NewMatch("", value.StringOf("x")); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewMatch("area", value.NullValue()); err == nil {
		t.Error("expected error for null match")
	}
	if _, err := NewMatch("area", value.StringOf("")); err == nil {
		t.Error("expected error for empty match")
	}
}

func TestNewRange(t *testing.T) {
	if _, err := NewRangeFilter(value.NullValue(), value.NullValue()); err == nil {
		t.Fatal("expected error for open range")
	}
	r, err := NewRangeFilter(value.IntOf(2020), value.NullValue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := NewRange("year", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsRange() {
		t.Error("expected range condition")
	}
	if !c.Range().GTE().Equal(value.IntOf(2020)) || !c.Range().LTE().IsNull() {
		t.Errorf("bounds = %v..%v", c.Range().GTE(), c.Range().LTE())
	}
}

func TestNewExpression(t *testing.T) {
	a, _ := NewMatch("area", value.StringOf("Tunisia"))
	b, _ := NewMatch("area", value.StringOf("Morocco"))

	if _, err := NewExpression(a, b); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error, got %v", err)
	}

	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		conds[i], _ = NewMatch(strings.Repeat("k", i+1), value.StringOf("v"))
	}
	if _, err := NewExpression(conds...); err == nil {
		t.Error("expected too many conditions error")
	}

	e, err := NewExpression()
	if err != nil || !e.IsEmpty() {
		t.Errorf("empty expression: %v, IsEmpty=%v", err, e.IsEmpty())
	}
}
