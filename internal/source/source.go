// Package source stream-parses uploaded files into ordered field maps.
package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
)

// Reader yields one record at a time. Next returns io.EOF after the last
// record. A *RecordError rejects only the current record and reading may
// continue; any other error is structural and ends the stream.
type Reader interface {
	Next() (document.Fields, error)
	// Total reports the number of records when the format knows it up front.
	Total() (int64, bool)
	Close() error
}

// RecordError is a data failure confined to one record.
type RecordError struct {
	Record int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// IsRecordError reports whether err rejects a single record only.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}

// Open returns a streaming reader for the given format. size is the byte
// length of src when known; formats that need random access spill src to a
// temporary file when it is not an io.ReaderAt.
func Open(format importjob.Format, src io.Reader, size int64) (Reader, error) {
	switch format {
	case importjob.FormatNDJSON:
		return newNDJSON(src), nil
	case importjob.FormatJSON:
		return newJSONArray(src)
	case importjob.FormatCSV:
		return newCSV(src)
	case importjob.FormatXLSX:
		return newXLSX(src)
	case importjob.FormatParquet:
		return newParquet(src, size)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
