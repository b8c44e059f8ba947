package patch

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

func TestNew_Empty(t *testing.T) {
	if _, err := New(document.Fields{}); err == nil {
		t.Fatal("expected error for empty patch")
	}
}

func TestApply(t *testing.T) {
	var base document.Fields
	base.Set("item", value.StringOf("Wheat"))
	base.Set("area", value.StringOf("Tunisia"))
	base.Set("year", value.IntOf(2020))
	doc := document.Reconstruct("d1", base)

	var upd document.Fields
	upd.Set("year", value.IntOf(2021))
	upd.Set("area", value.NullValue())
	upd.Set("unit", value.StringOf("t"))
	p, err := New(upd)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := p.Apply(doc)
	if got.ID() != "d1" {
		t.Errorf("ID() = %q", got.ID())
	}
	if keys := strings.Join(got.Fields().Keys(), ","); keys != "item,year,unit" {
		t.Errorf("Keys() = %q, want item,year,unit", keys)
	}
	if !got.Get("year").Equal(value.IntOf(2021)) {
		t.Errorf("year = %v", got.Get("year"))
	}
	// original untouched
	if doc.Get("area").String() != "Tunisia" {
		t.Error("Apply mutated the source document")
	}
}
