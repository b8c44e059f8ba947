package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
)

// maxLineBytes bounds one NDJSON line.
const maxLineBytes = 16 << 20

type ndjsonReader struct {
	nopCloser
	sc     *bufio.Scanner
	record int64
}

func newNDJSON(src io.Reader) *ndjsonReader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &ndjsonReader{sc: sc}
}

func (r *ndjsonReader) Next() (document.Fields, error) {
	for r.sc.Scan() {
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		r.record++

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		fields, err := document.DecodeObject(dec)
		if err != nil {
			return document.Fields{}, &RecordError{Record: r.record, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		if dec.More() {
			return document.Fields{}, &RecordError{Record: r.record, Err: fmt.Errorf("trailing data after object")}
		}
		return fields, nil
	}
	if err := r.sc.Err(); err != nil {
		return document.Fields{}, fmt.Errorf("read ndjson: %w", err)
	}
	return document.Fields{}, io.EOF
}

func (r *ndjsonReader) Total() (int64, bool) { return 0, false }
