package result

import (
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

func TestNew(t *testing.T) {
	var f document.Fields
	f.Set("item", value.StringOf("Wheat"))

	r := New("d1", 1.5, f)
	if r.ID() != "d1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 1.5 {
		t.Errorf("Score() = %f", r.Score())
	}
	if v, _ := r.Fields().Get("item"); v.String() != "Wheat" {
		t.Errorf("Fields()[item] = %v", v)
	}
	if r.Highlights() != nil {
		t.Error("Highlights() should start nil")
	}

	r.SetHighlights(map[string][]string{"item": {"<em>Wheat</em>"}})
	if got := r.Highlights()["item"]; len(got) != 1 || got[0] != "<em>Wheat</em>" {
		t.Errorf("Highlights() = %v", r.Highlights())
	}
}
