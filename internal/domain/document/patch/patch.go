package patch

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
)

// Patch is a partial document update.
// Fields absent from the patch are unchanged. A Null value deletes the field.
type Patch struct {
	fields document.Fields
}

// New validates and creates a Patch. At least one field must be provided.
func New(fields document.Fields) (Patch, error) {
	if fields.Len() == 0 {
		return Patch{}, fmt.Errorf("at least one field must be provided")
	}
	return Patch{fields: fields}, nil
}

// Fields returns the patched fields.
func (p Patch) Fields() document.Fields { return p.fields }

// Apply merges the patch into doc. Updated fields keep their position,
// new ones are appended.
func (p Patch) Apply(doc document.Document) document.Document {
	out := document.NewFields(doc.Fields().Len() + p.fields.Len())
	for k, v := range doc.Fields().All {
		out.Set(k, v)
	}
	for k, v := range p.fields.All {
		if v.IsNull() {
			out.Delete(k)
			continue
		}
		out.Set(k, v)
	}
	return document.Reconstruct(doc.ID(), out)
}
