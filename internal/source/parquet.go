package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

const parquetReadBuffer = 256

// parquetReader walks row groups in order using the generic row reader, so
// files with nested or optional columns need no Go schema.
type parquetReader struct {
	pf       *parquet.File
	spill    *os.File
	columns  []string
	repeated []bool
	groups   []parquet.RowGroup
	group    int
	rows     *parquet.Reader
	buf      []parquet.Row
	n, pos   int
	eof      bool
}

func newParquet(src io.Reader, size int64) (*parquetReader, error) {
	ra, ok := src.(io.ReaderAt)
	var spill *os.File
	if !ok || size <= 0 {
		f, n, err := spillToTemp(src, "facetdex-*.parquet")
		if err != nil {
			return nil, err
		}
		ra, size, spill = f, n, f
	}

	pf, err := parquet.OpenFile(ra, size)
	if err != nil {
		closeSpill(spill)
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	leaves := schema.Columns()
	columns := make([]string, len(leaves))
	repeated := make([]bool, len(leaves))
	for i, path := range leaves {
		columns[i] = strings.Join(path, ".")
		if leaf, ok := schema.Lookup(path...); ok {
			repeated[i] = leaf.MaxRepetitionLevel > 0
		}
	}

	return &parquetReader{
		pf:       pf,
		spill:    spill,
		columns:  columns,
		repeated: repeated,
		groups:   pf.RowGroups(),
		buf:      make([]parquet.Row, parquetReadBuffer),
	}, nil
}

// spillToTemp copies src to a temporary file named by pattern. Formats that
// need random access read from the file instead of holding the upload.
func spillToTemp(src io.Reader, pattern string) (*os.File, int64, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("buffer upload: %w", err)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		closeSpill(f)
		return nil, 0, fmt.Errorf("buffer upload: %w", err)
	}
	return f, n, nil
}

func closeSpill(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
}

func (r *parquetReader) Next() (document.Fields, error) {
	for r.pos >= r.n {
		if err := r.fill(); err != nil {
			return document.Fields{}, err
		}
	}
	row := r.buf[r.pos]
	r.pos++
	return r.rowFields(row), nil
}

// fill loads the next chunk of rows, advancing through row groups.
func (r *parquetReader) fill() error {
	for {
		if r.rows == nil {
			if r.group >= len(r.groups) {
				return io.EOF
			}
			r.rows = parquet.NewRowGroupReader(r.groups[r.group])
			r.group++
			r.eof = false
		}
		if r.eof {
			_ = r.rows.Close()
			r.rows = nil
			continue
		}

		n, err := r.rows.ReadRows(r.buf)
		r.n, r.pos = n, 0
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read parquet rows: %w", err)
			}
			r.eof = true
		}
		if n > 0 {
			return nil
		}
	}
}

// rowFields maps leaf values to fields in schema order. Repeated leaves
// collapse into a JSON array string.
func (r *parquetReader) rowFields(row parquet.Row) document.Fields {
	fields := document.NewFields(len(r.columns))
	var lists map[string][]any
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		col := v.Column()
		if col < 0 || col >= len(r.columns) {
			continue
		}
		name := r.columns[col]
		if r.repeated[col] {
			if lists == nil {
				lists = make(map[string][]any)
			}
			if _, ok := lists[name]; !ok {
				fields.Set(name, value.NullValue())
			}
			lists[name] = append(lists[name], parquetScalar(v))
			continue
		}
		fields.Set(name, toValue(v))
	}
	for name, items := range lists {
		b, err := json.Marshal(items)
		if err != nil {
			continue
		}
		fields.Set(name, value.StringOf(string(b)))
	}
	return fields
}

func parquetScalar(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	default:
		return v.String()
	}
}

func toValue(v parquet.Value) value.Value {
	switch v.Kind() {
	case parquet.Boolean:
		return value.BoolOf(v.Boolean())
	case parquet.Int32:
		return value.IntOf(int64(v.Int32()))
	case parquet.Int64:
		return value.IntOf(v.Int64())
	case parquet.Float:
		return value.FloatOf(float64(v.Float()))
	case parquet.Double:
		return value.FloatOf(v.Double())
	default:
		return value.StringOf(v.String())
	}
}

func (r *parquetReader) Total() (int64, bool) { return r.pf.NumRows(), true }

func (r *parquetReader) Close() error {
	if r.rows != nil {
		_ = r.rows.Close()
	}
	closeSpill(r.spill)
	return nil
}
