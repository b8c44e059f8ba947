// Package codec converts documents to and from the flat hash layout the
// search engine indexes.
package codec

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// SeqField holds the insertion sequence used as the default browse order.
const SeqField = "__seq"

// Encode renders fields for HSET. Declared fields are coerced to their schema
// type; undeclared fields are kept as strings and are not indexed. Nulls and
// reserved names are dropped.
func Encode(col collection.Collection, fields document.Fields) (map[string]string, error) {
	out := make(map[string]string, fields.Len()+1)
	for name, v := range fields.All {
		if v.IsNull() || strings.HasPrefix(name, field.ReservedPrefix) {
			continue
		}
		f, ok := col.FieldByName(name)
		if !ok {
			out[name] = v.String()
			continue
		}
		s, err := encodeValue(f.FieldType(), v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %w", domain.ErrInvalidDocument, name, err)
		}
		out[name] = s
	}
	return out, nil
}

func encodeValue(t field.Type, v value.Value) (string, error) {
	cv, err := t.Coerce(v)
	if err != nil {
		return "", err
	}
	switch t {
	case field.Date:
		ts, _ := cv.Time()
		return strconv.FormatInt(ts.UnixMilli(), 10), nil
	default:
		return cv.String(), nil
	}
}

// Decode hydrates stored strings back into typed values: schema fields first
// in declaration order, then undeclared fields by name.
func Decode(col collection.Collection, hash map[string]string) document.Fields {
	out := document.NewFields(len(hash))
	seen := make(map[string]bool, len(col.Fields()))
	for _, f := range col.Fields() {
		seen[f.Name()] = true
		s, ok := hash[f.Name()]
		if !ok {
			continue
		}
		out.Set(f.Name(), decodeValue(f.FieldType(), s))
	}

	rest := make([]string, 0, len(hash))
	for k := range hash {
		if !seen[k] && !strings.HasPrefix(k, field.ReservedPrefix) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	for _, k := range rest {
		out.Set(k, value.StringOf(hash[k]))
	}
	return out
}

func decodeValue(t field.Type, s string) value.Value {
	switch t {
	case field.Integer, field.Long:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.IntOf(i)
		}
	case field.Float, field.Double:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return value.FloatOf(f)
		}
	case field.Boolean:
		if b, err := value.ParseBool(s); err == nil {
			return value.BoolOf(b)
		}
	case field.Date:
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.DateOf(time.UnixMilli(ms))
		}
	}
	return value.StringOf(s)
}
