package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("test-idx").
		Prefix("doc:").
		Tag("category").
		Numeric("price", true).
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "category" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want category TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "price" || !idx.Fields[1].Sortable {
		t.Errorf("field[1] = %+v, want sortable price NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_TextWithExactAlias(t *testing.T) {
	idx := NewIndex("crops:idx").
		Prefix("facetdex:crops:").
		Text("item").
		TagWithOpts("item", "item__exact", "|", true, false).
		MustBuild()

	got := idx.String()
	want := "FT.CREATE crops:idx ON HASH PREFIX 1 facetdex:crops: SCHEMA item TEXT item AS item__exact TAG SEPARATOR | CASESENSITIVE"
	if got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestIndexBuilder_DuplicateAlias(t *testing.T) {
	_, err := NewIndex("idx").
		Text("item").
		TagWithOpts("other", "item", "|", false, false).
		Build()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestIndexBuilder_Validation(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("a")},
		{"bad name", NewIndex("bad name").Tag("a")},
		{"no fields", NewIndex("idx")},
		{"negative weight", NewIndex("idx").Field(IndexField{Name: "t", Type: IndexFieldText, TextWeight: -1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFieldArgs(t *testing.T) {
	f := IndexField{Name: "title", Type: IndexFieldText, TextWeight: 2, Sortable: true}
	got := strings.Join(FieldArgs(&f), " ")
	if got != "title TEXT WEIGHT 2 SORTABLE" {
		t.Errorf("FieldArgs = %q", got)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "crops:idx", "a-b_c"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"", "a b", "a*"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
