package collection

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	"github.com/kailas-cloud/facetdex/internal/repository/codec"
)

// tagSeparator is the ASCII unit separator, so values such as "Food|Feed"
// stay one tag.
const tagSeparator = "\x1f"

// buildIndex creates an IndexDefinition from domain collection fields plus
// the internal insertion sequence.
func buildIndex(name string, fields []field.Field) (*db.IndexDefinition, error) {
	schema, err := buildFields(fields)
	if err != nil {
		return nil, err
	}
	schema = append(schema, db.IndexField{
		Name:     codec.SeqField,
		Type:     db.IndexFieldNumeric,
		Sortable: true,
	})

	return &db.IndexDefinition{
		Name:        indexName(name),
		StorageType: db.StorageHash,
		Prefixes:    []string{collectionPrefix(name)},
		Fields:      schema,
	}, nil
}

// buildFields maps schema fields to index attributes. A text field is indexed
// twice: full text under its name and an exact TAG under name__exact.
func buildFields(fields []field.Field) ([]db.IndexField, error) {
	out := make([]db.IndexField, 0, len(fields)+2)
	for _, f := range fields {
		switch f.FieldType() {
		case field.Text:
			out = append(out,
				db.IndexField{Name: f.Name(), Type: db.IndexFieldText},
				db.IndexField{
					Name:             f.Name(),
					Alias:            f.ExactName(),
					Type:             db.IndexFieldTag,
					TagSeparator:     tagSeparator,
					TagCaseSensitive: true,
				},
			)
		case field.Keyword:
			out = append(out, db.IndexField{
				Name:             f.Name(),
				Type:             db.IndexFieldTag,
				TagSeparator:     tagSeparator,
				TagCaseSensitive: true,
				Sortable:         true,
			})
		case field.Boolean:
			out = append(out, db.IndexField{Name: f.Name(), Type: db.IndexFieldTag})
		case field.Integer, field.Long, field.Float, field.Double, field.Date:
			out = append(out, db.IndexField{Name: f.Name(), Type: db.IndexFieldNumeric, Sortable: true})
		default:
			return nil, fmt.Errorf("unknown field type: %s", f.FieldType())
		}
	}
	return out, nil
}
