package collection

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
)

// MaxFields is the maximum number of fields in a collection schema.
const MaxFields = 128

// FieldSpec is an unvalidated (name, type) pair as supplied by a caller.
type FieldSpec struct {
	Name string
	Type field.Type
}

// Metadata is the operator-facing description mirrored into the side-store.
type Metadata struct {
	Title       string
	Description string
	Icon        string
	Creator     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Collection is the document collection aggregate (immutable value object).
type Collection struct {
	name      string
	fields    []field.Field
	createdAt int64
	updatedAt int64
	revision  int
}

// reservedNames collide with engine-owned key namespaces.
var reservedNames = map[string]bool{"collection": true, "facets": true, "seq": true}

// ValidateName checks the collection identifier grammar.
func ValidateName(name string) error {
	if err := field.ValidateName(name); err != nil {
		return fmt.Errorf("collection %w", err)
	}
	if reservedNames[name] || strings.HasPrefix(name, field.ReservedPrefix) {
		return fmt.Errorf("collection name %q is reserved", name)
	}
	return nil
}

// ParseFields validates caller specs in order and stops at the first
// violation, reporting it against fields[i].
func ParseFields(specs []FieldSpec) ([]field.Field, error) {
	if len(specs) > MaxFields {
		return nil, fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	out := make([]field.Field, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		f, err := field.New(s.Name, s.Type)
		if err != nil {
			return nil, domain.NewFieldError(fmt.Sprintf("fields[%d]", i), err)
		}
		if seen[s.Name] {
			return nil, domain.NewFieldError(fmt.Sprintf("fields[%d]", i),
				fmt.Errorf("duplicate field name: %s", s.Name))
		}
		seen[s.Name] = true
		out = append(out, f)
	}
	return out, nil
}

func validateFields(fields []field.Field) error {
	if len(fields) > MaxFields {
		return fmt.Errorf("too many fields (max %d)", MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if seen[f.Name()] {
			return domain.NewFieldError(fmt.Sprintf("fields[%d]", i),
				fmt.Errorf("duplicate field name: %s", f.Name()))
		}
		seen[f.Name()] = true
	}
	return nil
}

// New validates and creates a Collection.
// Name: lowercase identifier grammar, 1-64 chars. Fields: unique names, max 128.
func New(name string, fields []field.Field) (Collection, error) {
	if err := ValidateName(name); err != nil {
		return Collection{}, err
	}
	if err := validateFields(fields); err != nil {
		return Collection{}, err
	}

	now := time.Now().UnixMilli()
	return Collection{
		name:      name,
		fields:    fields,
		createdAt: now,
		updatedAt: now,
		revision:  1,
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name string, fields []field.Field, createdAt, updatedAt int64, revision int) Collection {
	return Collection{
		name:      name,
		fields:    fields,
		createdAt: createdAt,
		updatedAt: updatedAt,
		revision:  revision,
	}
}

// WithFields returns a copy with extra fields appended and the revision bumped.
// Existing fields cannot be redefined.
func (c Collection) WithFields(extra []field.Field) (Collection, error) {
	if len(extra) == 0 {
		return Collection{}, fmt.Errorf("at least one field is required")
	}
	merged := make([]field.Field, 0, len(c.fields)+len(extra))
	merged = append(merged, c.fields...)
	merged = append(merged, extra...)
	if err := validateFields(merged); err != nil {
		return Collection{}, err
	}
	return Collection{
		name:      c.name,
		fields:    merged,
		createdAt: c.createdAt,
		updatedAt: time.Now().UnixMilli(),
		revision:  c.revision + 1,
	}, nil
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Fields returns the ordered schema.
func (c Collection) Fields() []field.Field { return c.fields }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// UpdatedAt returns the last schema change timestamp (unix millis).
func (c Collection) UpdatedAt() int64 { return c.updatedAt }

// Revision returns the schema version, bumped on every field addition.
func (c Collection) Revision() int { return c.revision }

// FieldByName looks up a field by name.
func (c Collection) FieldByName(name string) (field.Field, bool) {
	for _, f := range c.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// TextFields returns the fields searched by free text.
func (c Collection) TextFields() []field.Field {
	var out []field.Field
	for _, f := range c.fields {
		if f.FieldType() == field.Text {
			out = append(out, f)
		}
	}
	return out
}
