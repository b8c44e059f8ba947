package field

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// Type is the declared type of a collection field.
type Type string

// Field type constants.
const (
	// Text is free text with relevance search and a parallel exact sub-field.
	Text    Type = "text"
	Keyword Type = "keyword"
	Integer Type = "integer"
	Long    Type = "long"
	Float   Type = "float"
	Double  Type = "double"
	Boolean Type = "boolean"
	// Date is stored as epoch milliseconds.
	Date Type = "date"
)

// MaxNameLength is the maximum field name length.
const MaxNameLength = 64

// ReservedPrefix marks internal fields (insertion sequence, exact sub-fields).
const ReservedPrefix = "__"

// ExactSuffix names the exact-match sub-field of a text field.
const ExactSuffix = "__exact"

var nameRegex = regexp.MustCompile(`^[a-z_-][a-z0-9_-]*$`)

// IsValid checks if the field type is supported.
func (t Type) IsValid() bool {
	switch t {
	case Text, Keyword, Integer, Long, Float, Double, Boolean, Date:
		return true
	}
	return false
}

// IsNumeric reports whether values are indexed as numbers (dates included).
func (t Type) IsNumeric() bool {
	switch t {
	case Integer, Long, Float, Double, Date:
		return true
	}
	return false
}

// Sortable reports whether the field can be used as a sort key.
func (t Type) Sortable() bool { return t.IsNumeric() || t == Keyword }

// Coerce converts v to the representation the type stores.
// Null passes through unchanged.
func (t Type) Coerce(v value.Value) (value.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	switch t {
	case Text, Keyword:
		if v.Kind() == value.String {
			return v, nil
		}
		return value.StringOf(v.String()), nil
	case Integer:
		out, err := value.ToInt(v)
		if err != nil {
			return value.Value{}, err
		}
		if i, _ := out.Int(); i < -1<<31 || i > 1<<31-1 {
			return value.Value{}, fmt.Errorf("%d overflows integer", i)
		}
		return out, nil
	case Long:
		return value.ToInt(v)
	case Float, Double:
		return value.ToFloat(v)
	case Boolean:
		return value.ToBool(v)
	case Date:
		return value.ToDate(v)
	default:
		return value.Value{}, fmt.Errorf("unknown field type %q", t)
	}
}

// Field is an immutable value object describing a collection field.
type Field struct {
	name      string
	fieldType Type
}

// ValidateName checks the identifier grammar shared by collections and fields:
// lowercase alphanumerics, underscore and hyphen, no leading digit.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name %q too long (max %d)", name, MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("name %q must be lowercase alphanumeric with underscores and hyphens, not starting with a digit", name)
	}
	return nil
}

// New validates and creates a Field.
// Name follows the identifier grammar and must not use the reserved prefix.
func New(name string, ft Type) (Field, error) {
	if err := ValidateName(name); err != nil {
		return Field{}, err
	}
	if strings.HasPrefix(name, ReservedPrefix) || strings.HasSuffix(name, ExactSuffix) {
		return Field{}, fmt.Errorf("field name %q is reserved", name)
	}
	if !ft.IsValid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", ft, name)
	}
	return Field{name: name, fieldType: ft}, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, ft Type) Field {
	return Field{name: name, fieldType: ft}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// FieldType returns the declared type.
func (f Field) FieldType() Type { return f.fieldType }

// ExactName returns the exact-match sub-field alias for text fields.
func (f Field) ExactName() string { return f.name + ExactSuffix }
