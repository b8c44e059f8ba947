package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
)

// jsonArrayReader walks a top-level JSON array element by element without
// loading it whole.
type jsonArrayReader struct {
	nopCloser
	dec    *json.Decoder
	record int64
	done   bool
}

func newJSONArray(src io.Reader) (*jsonArrayReader, error) {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("read json: expected top-level array, got %v", tok)
	}
	return &jsonArrayReader{dec: dec}, nil
}

func (r *jsonArrayReader) Next() (document.Fields, error) {
	if r.done || !r.dec.More() {
		r.done = true
		return document.Fields{}, io.EOF
	}

	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return document.Fields{}, fmt.Errorf("read json element %d: %w", r.record+1, err)
	}
	r.record++

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	fields, err := document.DecodeObject(dec)
	if err != nil {
		return document.Fields{}, &RecordError{Record: r.record, Err: err}
	}
	return fields, nil
}

func (r *jsonArrayReader) Total() (int64, bool) { return 0, false }
