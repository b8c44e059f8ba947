package facetdex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// maxFrameBytes bounds one SSE line; a done frame carries up to the
// server's failure detail limit.
const maxFrameBytes = 8 << 20

// ImportOptions describe an upload.
type ImportOptions struct {
	// Format is csv, ndjson, jsonl, json, xlsx or parquet. When empty it is
	// taken from the extension of FileName.
	Format   string
	FileName string
	// BatchSize is the number of records per write; 0 uses the server default.
	BatchSize int
	// IDField names the field that supplies document ids; ids are generated
	// when empty.
	IDField string
}

func (o ImportOptions) query(stream bool) (url.Values, error) {
	format := o.Format
	if format == "" {
		format = strings.TrimPrefix(path.Ext(o.FileName), ".")
	}
	if format == "" {
		return nil, fmt.Errorf("%w: format or file name with extension required", ErrUnsupportedFormat)
	}
	q := url.Values{
		"format": {format},
		"stream": {strconv.FormatBool(stream)},
	}
	if o.BatchSize > 0 {
		q.Set("batch_size", strconv.Itoa(o.BatchSize))
	}
	if o.IDField != "" {
		q.Set("id_field", o.IDField)
	}
	return q, nil
}

// ImportService uploads files into a collection.
type ImportService struct {
	c          *Client
	collection string
}

// Run uploads r and waits for the job summary. A job that ends in the
// failed state returns the summary together with ErrImportFailed.
func (s *ImportService) Run(ctx context.Context, r io.Reader, opts ImportOptions) (_ ImportProgress, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("import.run", start, err) }()

	resp, err := s.post(ctx, r, opts, false)
	if err != nil {
		return ImportProgress{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var summary ImportProgress
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return ImportProgress{}, fmt.Errorf("import: decode summary: %w", err)
	}
	return summary, finalError(summary)
}

// Stream uploads r and calls fn for every progress frame as it arrives.
// Returning an error from fn stops reading; the server then cancels the job
// once it notices the closed connection. The done frame's progress is
// returned as the summary.
func (s *ImportService) Stream(
	ctx context.Context, r io.Reader, opts ImportOptions, fn func(ImportEvent) error,
) (_ ImportProgress, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("import.stream", start, err) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := s.post(ctx, r, opts, true)
	if err != nil {
		return ImportProgress{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var (
		summary ImportProgress
		done    bool
	)
	err = readEvents(resp.Body, func(ev ImportEvent) error {
		if ev.Type == EventDone {
			summary, done = ev.Progress, true
		}
		if fn != nil {
			return fn(ev)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("import: %w", err)
	}
	if !done {
		return ImportProgress{}, fmt.Errorf("import: stream ended without done event: %w", io.ErrUnexpectedEOF)
	}
	return summary, finalError(summary)
}

func (s *ImportService) post(ctx context.Context, r io.Reader, opts ImportOptions, stream bool) (*http.Response, error) {
	q, err := opts.query(stream)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	req, err := s.c.newRequest(ctx, http.MethodPost,
		collectionPath(s.collection, "import"), q, r, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := s.c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	// 422 carries the summary of a failed job
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnprocessableEntity {
		defer func() { _ = resp.Body.Close() }()
		return nil, fmt.Errorf("import: %w", decodeError(resp))
	}
	return resp, nil
}

func finalError(p ImportProgress) error {
	if p.State == ImportFailed {
		return fmt.Errorf("%w: %s", ErrImportFailed, p.Message)
	}
	return nil
}

// readEvents parses a text/event-stream body. Frames are separated by a
// blank line; multiple data lines are joined with newlines.
func readEvents(r io.Reader, fn func(ImportEvent) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrameBytes)

	var (
		typ  string
		data bytes.Buffer
	)
	flush := func() error {
		if data.Len() == 0 {
			typ = ""
			return nil
		}
		ev := ImportEvent{Type: typ}
		if ev.Type == "" {
			ev.Type = "message"
		}
		if err := json.Unmarshal(data.Bytes(), &ev.Progress); err != nil {
			return fmt.Errorf("decode %s frame: %w", ev.Type, err)
		}
		typ = ""
		data.Reset()
		return fn(ev)
	}

	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case len(line) == 0:
			if err := flush(); err != nil {
				return err
			}
		case line[0] == ':':
			// comment
		default:
			name, val, _ := bytes.Cut(line, []byte(":"))
			val = bytes.TrimPrefix(val, []byte(" "))
			switch string(name) {
			case "event":
				typ = string(val)
			case "data":
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.Write(val)
			}
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("read stream: %w", err)
	}
	return flush()
}
