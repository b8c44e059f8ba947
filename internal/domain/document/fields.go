package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// Fields is an insertion-ordered map of field name to Value.
// The zero value is an empty map ready to use.
type Fields struct {
	keys []string
	vals map[string]value.Value
}

// NewFields creates an empty map with room for n fields.
func NewFields(n int) Fields {
	return Fields{keys: make([]string, 0, n), vals: make(map[string]value.Value, n)}
}

// Set inserts or replaces a field. Replacing keeps the original position.
func (f *Fields) Set(name string, v value.Value) {
	if f.vals == nil {
		f.vals = make(map[string]value.Value)
	}
	if _, ok := f.vals[name]; !ok {
		f.keys = append(f.keys, name)
	}
	f.vals[name] = v
}

// Get returns a field value and whether it is present.
func (f Fields) Get(name string) (value.Value, bool) {
	v, ok := f.vals[name]
	return v, ok
}

// Delete removes a field.
func (f *Fields) Delete(name string) {
	if _, ok := f.vals[name]; !ok {
		return
	}
	delete(f.vals, name)
	for i, k := range f.keys {
		if k == name {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (f Fields) Keys() []string { return f.keys }

// Len returns the number of fields.
func (f Fields) Len() int { return len(f.keys) }

// All iterates over fields in insertion order.
func (f Fields) All(yield func(string, value.Value) bool) {
	for _, k := range f.keys {
		if !yield(k, f.vals[k]) {
			return
		}
	}
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := f.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := DecodeObject(dec)
	if err != nil {
		return err
	}
	*f = out
	return nil
}

// DecodeObject reads one JSON object from dec, keeping key order. The decoder
// must have UseNumber enabled for integers to survive as Int values.
func DecodeObject(dec *json.Decoder) (Fields, error) {
	tok, err := dec.Token()
	if err != nil {
		return Fields{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Fields{}, fmt.Errorf("expected JSON object, got %v", tok)
	}
	out := NewFields(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Fields{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Fields{}, fmt.Errorf("expected object key, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return Fields{}, fmt.Errorf("field %q: %w", key, err)
		}
		v, err := value.FromAny(raw)
		if err != nil {
			return Fields{}, fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return Fields{}, err
	}
	return out, nil
}
