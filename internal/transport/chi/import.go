package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
	"github.com/kailas-cloud/facetdex/internal/logger"
	ingestuc "github.com/kailas-cloud/facetdex/internal/usecase/ingest"
)

// uploadPart is the multipart form field carrying the file.
const uploadPart = "file"

var errNoFilePart = errors.New("multipart upload has no \"file\" part")

// ImportDocuments handles POST /collections/{collection}/import.
//
// The file arrives either as the "file" part of a multipart upload or as the
// raw request body. With Accept: text/event-stream or stream=true every batch
// is sent as an SSE frame; otherwise the response is the final summary.
func (s *Server) ImportDocuments(
	w http.ResponseWriter, r *http.Request, collection CollectionName, params ImportDocumentsParams,
) {
	// uploads outlive the server-wide deadlines
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	src, filename, err := s.uploadSource(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return
	}

	format := deref(params.Format)
	if format == "" {
		format = path.Ext(filename)
	}
	if format == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeUnsupportedFormat,
			"format is required when the file name has no extension")
		return
	}
	f, err := importjob.ParseFormat(format)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err))
		return
	}

	stream := wantsStream(r, params)
	if stream {
		// the job keeps reading the upload after the first frame is flushed;
		// HTTP/1.1 would otherwise close the body once the response starts
		if err := rc.EnableFullDuplex(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "streaming import unavailable")
			return
		}
	}

	events, err := s.imports.Import(r.Context(), ingestuc.Request{
		Collection: collection,
		Format:     f,
		Source:     src,
		BatchSize:  deref(params.BatchSize),
		IDField:    deref(params.IDField),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if stream {
		streamImport(w, r, rc, events)
		return
	}
	summarizeImport(w, events)
}

// uploadSource returns the upload body and its file name ("" for a raw body).
func (s *Server) uploadSource(w http.ResponseWriter, r *http.Request) (io.Reader, string, error) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "", nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("read multipart upload: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", errNoFilePart
		}
		if err != nil {
			return nil, "", fmt.Errorf("read multipart upload: %w", err)
		}
		if part.FormName() == uploadPart {
			return part, part.FileName(), nil
		}
	}
}

func wantsStream(r *http.Request, params ImportDocumentsParams) bool {
	if params.Stream != nil {
		return *params.Stream
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// streamImport writes one SSE frame per event and flushes it. The channel is
// always drained so the job never blocks on a dead connection.
func streamImport(w http.ResponseWriter, r *http.Request, rc *http.ResponseController, events <-chan importjob.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	broken := false
	for ev := range events {
		if broken {
			continue
		}
		if err := writeEvent(w, ev); err != nil {
			logger.FromContext(r.Context()).Warn("import stream write failed", zap.Error(err))
			broken = true
			continue
		}
		if err := rc.Flush(); err != nil {
			logger.FromContext(r.Context()).Warn("import stream flush failed", zap.Error(err))
			broken = true
		}
	}
}

func writeEvent(w io.Writer, ev importjob.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

// summarizeImport waits for the job and answers with its final state.
// A job that failed as a whole answers 422.
func summarizeImport(w http.ResponseWriter, events <-chan importjob.Event) {
	var summary ImportSummaryResponse
	done := false
	for ev := range events {
		if ev.Type == importjob.EventDone {
			summary = ev.Data
			done = true
		}
	}
	if !done {
		// cancelled by a disconnected client
		return
	}

	status := http.StatusOK
	if summary.State == importjob.StateFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, summary)
}
