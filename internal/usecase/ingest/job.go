package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	"github.com/kailas-cloud/facetdex/internal/source"
)

const progressLogInterval = 5 * time.Second

// job is the state of one running import. It is owned by a single goroutine.
type job struct {
	svc       *Service
	id        string
	col       domcol.Collection
	req       Request
	batchSize int
	log       *zap.Logger
	progress  rate.Sometimes

	events   chan importjob.Event
	failures *importjob.FailureLog
	counters importjob.Counters
	batch    int
	record   int64
	facets   []string
	started  time.Time
}

// pending is a parsed document awaiting its write, with its record number.
type pending struct {
	record int64
	doc    domdoc.Document
}

func (j *job) run(ctx context.Context) {
	defer close(j.events)
	j.progress = rate.Sometimes{First: 1, Interval: progressLogInterval}
	j.log.Info("import started", zap.Int("batch_size", j.batchSize))

	r, err := source.Open(j.req.Format, j.req.Source, j.req.Size)
	if err != nil {
		j.finish(ctx, importjob.StateFailed, fmt.Sprintf("open source: %v", err))
		return
	}
	defer r.Close()

	j.counters.Total, j.counters.TotalKnown = r.Total()

	for {
		if ctx.Err() != nil {
			j.finish(ctx, importjob.StateCancelled, "import cancelled")
			return
		}

		j.batch++
		docs, consumed, parseErr := j.readBatch(r)
		if consumed == 0 {
			j.batch--
			if errors.Is(parseErr, io.EOF) {
				break
			}
			j.finishParseError(ctx, parseErr)
			return
		}

		batchErr := j.writeBatch(ctx, docs)
		if batchErr != nil && j.counters.Succeeded == 0 {
			j.emit(ctx, importjob.EventError, batchErr.Error())
			j.finish(ctx, importjob.StateFailed, fmt.Sprintf("engine unavailable: %v", batchErr))
			return
		}

		evType, msg := importjob.EventProgress, ""
		if batchErr != nil {
			evType, msg = importjob.EventError, batchErr.Error()
		}
		if !j.emit(ctx, evType, msg) {
			j.finish(ctx, importjob.StateCancelled, "import cancelled")
			return
		}

		if errors.Is(parseErr, io.EOF) {
			break
		}
		if parseErr != nil {
			j.finishParseError(ctx, parseErr)
			return
		}
	}

	state := importjob.StateCompleted
	if j.counters.Failed > 0 {
		state = importjob.StateCompletedWithErrors
	}
	j.finish(ctx, state, "")
}

// finishParseError ends the job on a structural parse error. Nothing
// written yet makes the whole import a failure.
func (j *job) finishParseError(ctx context.Context, err error) {
	state := importjob.StateCompletedWithErrors
	if j.counters.Succeeded == 0 {
		state = importjob.StateFailed
	}
	j.finish(ctx, state, fmt.Sprintf("parse: %v", err))
}

// readBatch consumes up to batchSize records and reports how many it
// consumed. Record-level parse failures count toward the batch and are
// logged as failures. The error is io.EOF at the end of input or a
// structural parse error.
func (j *job) readBatch(r source.Reader) ([]pending, int, error) {
	docs := make([]pending, 0, j.batchSize)
	consumed := 0
	for consumed < j.batchSize {
		fields, err := r.Next()
		if errors.Is(err, io.EOF) {
			return docs, consumed, io.EOF
		}
		if err != nil && !source.IsRecordError(err) {
			return docs, consumed, err
		}
		consumed++
		j.record++
		if err != nil {
			j.fail(j.record, "", err.Error())
			continue
		}

		doc, err := j.newDocument(fields)
		if err != nil {
			j.fail(j.record, "", err.Error())
			continue
		}
		docs = append(docs, pending{record: j.record, doc: doc})
	}
	return docs, consumed, nil
}

func (j *job) newDocument(fields domdoc.Fields) (domdoc.Document, error) {
	if j.req.IDField == "" {
		return domdoc.New(uuid.NewString(), fields)
	}
	v, ok := fields.Get(j.req.IDField)
	if !ok || v.IsNull() || v.String() == "" {
		return domdoc.Document{}, fmt.Errorf("missing id field %q", j.req.IDField)
	}
	return domdoc.New(v.String(), fields)
}

// writeBatch stores docs, retrying transient item failures with exponential
// backoff. The write and the facet update run detached from ctx so a
// disconnect never leaves a half-counted batch. The returned error is the
// batch-level reason when retries were exhausted.
func (j *job) writeBatch(ctx context.Context, docs []pending) error {
	if len(docs) == 0 {
		return nil
	}
	wctx := context.WithoutCancel(ctx)
	start := time.Now()
	defer func() { metrics.IngestBatchDuration.Observe(time.Since(start).Seconds()) }()

	var (
		written  []domdoc.Document
		batchErr error
	)
	retry := docs
	for attempt := 1; len(retry) > 0; attempt++ {
		batch := make([]domdoc.Document, len(retry))
		for i, p := range retry {
			batch[i] = p.doc
		}

		errs, err := j.svc.docs.BulkWrite(wctx, j.col, batch)
		if err != nil {
			// documents without a reason of their own share the batch-level one
			if len(errs) != len(batch) {
				errs = make([]error, len(batch))
			}
			for i := range errs {
				if errs[i] == nil {
					errs[i] = err
				}
			}
		}

		var next []pending
		var lastErr error
		for i, p := range retry {
			switch e := errs[i]; {
			case e == nil:
				written = append(written, p.doc)
			case db.IsTransient(e):
				next = append(next, p)
				lastErr = e
			default:
				j.fail(p.record, p.doc.ID(), e.Error())
			}
		}
		retry = next

		if len(retry) == 0 {
			break
		}
		if attempt >= j.svc.cfg.MaxAttempts {
			batchErr = fmt.Errorf("batch %d: %d records failed after %d attempts: %w",
				j.batch, len(retry), attempt, lastErr)
			for _, p := range retry {
				j.fail(p.record, p.doc.ID(), lastErr.Error())
			}
			break
		}

		metrics.IngestRetriesTotal.Inc()
		j.log.Warn("retrying batch",
			zap.Int("batch", j.batch),
			zap.Int("attempt", attempt),
			zap.Int("records", len(retry)),
			zap.Error(lastErr),
		)
		time.Sleep(j.svc.cfg.RetryBackoff << (attempt - 1))
	}

	j.counters.Succeeded += int64(len(written))
	j.counters.Processed = j.counters.Succeeded + j.counters.Failed
	metrics.IngestRecordsTotal.WithLabelValues("succeeded").Add(float64(len(written)))

	switch {
	case batchErr != nil:
		metrics.IngestBatchesTotal.WithLabelValues("error").Inc()
	case len(written) < len(docs):
		metrics.IngestBatchesTotal.WithLabelValues("partial").Inc()
	default:
		metrics.IngestBatchesTotal.WithLabelValues("ok").Inc()
	}

	if len(written) > 0 {
		fields, err := j.svc.facets.Update(wctx, j.col.Name(), written)
		if err != nil {
			j.log.Warn("facet update failed", zap.Int("batch", j.batch), zap.Error(err))
		}
		for _, f := range fields {
			if !slices.Contains(j.facets, f) {
				j.facets = append(j.facets, f)
			}
		}
	}
	return batchErr
}

func (j *job) fail(record int64, id, reason string) {
	j.failures.Add(importjob.Failure{Record: record, ID: id, Batch: j.batch, Reason: reason})
	j.counters.Failed++
	j.counters.Processed = j.counters.Succeeded + j.counters.Failed
	metrics.IngestRecordsTotal.WithLabelValues("failed").Inc()
}

func (j *job) data(state importjob.State, msg string) importjob.Data {
	return importjob.Data{
		JobID:      j.id,
		Collection: j.col.Name(),
		BatchIndex: j.batch,
		State:      state,
		Counters:   j.counters,
		Message:    msg,
	}
}

// emit sends a per-batch event, blocking on a slow consumer. It returns
// false once ctx is done.
func (j *job) emit(ctx context.Context, typ importjob.EventType, msg string) bool {
	ev := importjob.Event{Type: typ, Data: j.data(importjob.StateRunning, msg)}
	j.progress.Do(func() {
		j.log.Info("import progress",
			zap.Int("batch", j.batch),
			zap.Int64("processed", j.counters.Processed),
			zap.Int64("failed", j.counters.Failed),
		)
	})
	select {
	case j.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (j *job) finish(ctx context.Context, state importjob.State, msg string) {
	if !j.counters.TotalKnown {
		j.counters.Total = j.counters.Processed
		j.counters.TotalKnown = state != importjob.StateCancelled && state != importjob.StateFailed
	}

	d := j.data(state, msg)
	d.FacetFields = j.facets
	d.Failures = j.failures.Details()
	d.FailureSummary = j.failures.Summary()
	d.FailuresTruncated = j.failures.Truncated()
	d.ElapsedMS = time.Since(j.started).Milliseconds()
	ev := importjob.Event{Type: importjob.EventDone, Data: d}

	metrics.IngestJobsTotal.WithLabelValues(string(state)).Inc()
	fields := []zap.Field{
		zap.String("state", string(state)),
		zap.Int("batches", j.batch),
		zap.Int64("succeeded", j.counters.Succeeded),
		zap.Int64("failed", j.counters.Failed),
		zap.Int64("elapsed_ms", d.ElapsedMS),
	}
	if msg != "" {
		fields = append(fields, zap.String("message", msg))
	}
	if state == importjob.StateFailed {
		j.log.Error("import finished", fields...)
	} else {
		j.log.Info("import finished", fields...)
	}

	if ctx.Err() != nil {
		// nobody may be listening; keep the event only if the buffer has room
		select {
		case j.events <- ev:
		default:
		}
		return
	}
	select {
	case j.events <- ev:
	case <-ctx.Done():
	}
}
