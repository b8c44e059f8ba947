package source

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
)

// xlsxXMLInMemory caps the unzipped worksheet XML excelize keeps in memory.
// Larger sheets are extracted to a temporary file and read row by row.
var xlsxXMLInMemory int64 = 8 << 20

// xlsxReader streams the first worksheet; the first row names the fields.
type xlsxReader struct {
	f      *excelize.File
	spill  *os.File
	rows   *excelize.Rows
	header []string
	record int64
}

// newXLSX spills the upload to disk before opening it. excelize reads the
// compressed archive once while opening and then keeps only the parts below
// xlsxXMLInMemory; the first sheet's rows are iterated from the extracted file.
func newXLSX(src io.Reader) (*xlsxReader, error) {
	spill, _, err := spillToTemp(src, "facetdex-*.xlsx")
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(spill.Name(), excelize.Options{UnzipXMLSizeLimit: xlsxXMLInMemory})
	if err != nil {
		closeSpill(spill)
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	fail := func(err error) (*xlsxReader, error) {
		_ = f.Close()
		closeSpill(spill)
		return nil, err
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fail(fmt.Errorf("open xlsx: workbook has no sheets"))
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fail(fmt.Errorf("open sheet %s: %w", sheets[0], err))
	}
	if !rows.Next() {
		_ = rows.Close()
		return fail(fmt.Errorf("read xlsx: missing header row"))
	}
	head, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return fail(fmt.Errorf("read xlsx header: %w", err))
	}

	return &xlsxReader{f: f, spill: spill, rows: rows, header: normalizeHeader(head)}, nil
}

func (r *xlsxReader) Next() (document.Fields, error) {
	for r.rows.Next() {
		cells, err := r.rows.Columns()
		r.record++
		if err != nil {
			return document.Fields{}, &RecordError{Record: r.record, Err: err}
		}
		if blank(cells) {
			continue
		}
		if len(cells) > len(r.header) {
			return document.Fields{}, &RecordError{
				Record: r.record,
				Err:    fmt.Errorf("row has %d columns, header has %d", len(cells), len(r.header)),
			}
		}
		return rowFields(r.header, cells), nil
	}
	if err := r.rows.Error(); err != nil {
		return document.Fields{}, fmt.Errorf("read xlsx: %w", err)
	}
	return document.Fields{}, io.EOF
}

// Total is unknown: excelize only reports the sheet dimension after loading
// the whole worksheet.
func (r *xlsxReader) Total() (int64, bool) { return 0, false }

func (r *xlsxReader) Close() error {
	_ = r.rows.Close()
	err := r.f.Close()
	closeSpill(r.spill)
	return err
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
