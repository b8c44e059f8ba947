package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

const utf8BOM = "\ufeff"

type csvReader struct {
	nopCloser
	r      *csv.Reader
	header []string
	record int64
}

func newCSV(src io.Reader) (*csvReader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv: missing header row")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return &csvReader{r: r, header: normalizeHeader(head)}, nil
}

func (r *csvReader) Next() (document.Fields, error) {
	row, err := r.r.Read()
	if errors.Is(err, io.EOF) {
		return document.Fields{}, io.EOF
	}
	r.record++

	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return document.Fields{}, &RecordError{Record: r.record, Err: err}
	}
	if err != nil {
		return document.Fields{}, fmt.Errorf("read csv: %w", err)
	}
	if len(row) != len(r.header) {
		return document.Fields{}, &RecordError{
			Record: r.record,
			Err:    fmt.Errorf("row has %d columns, header has %d", len(row), len(r.header)),
		}
	}
	return rowFields(r.header, row), nil
}

func (r *csvReader) Total() (int64, bool) { return 0, false }

// normalizeHeader trims names and drops a leading byte order mark.
func normalizeHeader(head []string) []string {
	out := make([]string, len(head))
	for i, h := range head {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// rowFields pairs cells with header names; blank cells and unnamed columns
// are left out.
func rowFields(header, row []string) document.Fields {
	fields := document.NewFields(len(header))
	for i, name := range header {
		if name == "" || i >= len(row) || row[i] == "" {
			continue
		}
		fields.Set(name, value.StringOf(row[i]))
	}
	return fields
}
