package document

import (
	"fmt"
	"unicode"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 256

// Document is a loosely-typed record owned by a collection.
type Document struct {
	id     string
	fields Fields
}

// New validates the identifier and creates a Document.
// An empty id is allowed; the ingestion layer assigns one before writing.
func New(id string, fields Fields) (Document, error) {
	if err := ValidateID(id); err != nil && id != "" {
		return Document{}, err
	}
	return Document{id: id, fields: fields}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id string, fields Fields) Document {
	return Document{id: id, fields: fields}
}

// ValidateID checks a caller-supplied identifier: 1-256 chars, no whitespace
// or control characters.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("document ID must not contain whitespace")
		}
	}
	return nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Fields returns the ordered field map.
func (d Document) Fields() Fields { return d.fields }

// Get returns a field value; missing fields are Null.
func (d Document) Get(name string) value.Value {
	v, _ := d.fields.Get(name)
	return v
}

// WithID returns a copy carrying the given identifier.
func (d Document) WithID(id string) Document {
	return Document{id: id, fields: d.fields}
}
