// Package ingest bulk-loads uploaded files into a collection and reports
// progress as a stream of events.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
	"github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Defaults for Config.
const (
	DefaultBatchSize    = 2000
	DefaultMinBatchSize = 1
	DefaultMaxBatchSize = 10000
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 200 * time.Millisecond
	DefaultEventBuffer  = 16
)

// Config tunes batching, retries and failure reporting.
type Config struct {
	DefaultBatchSize  int
	MinBatchSize      int
	MaxBatchSize      int
	MaxAttempts       int
	RetryBackoff      time.Duration
	MaxFailureDetails int
	EventBuffer       int
}

func (c *Config) applyDefaults() {
	if c.DefaultBatchSize <= 0 {
		c.DefaultBatchSize = DefaultBatchSize
	}
	if c.MinBatchSize <= 0 {
		c.MinBatchSize = DefaultMinBatchSize
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.MaxFailureDetails <= 0 {
		c.MaxFailureDetails = importjob.DefaultMaxFailureDetails
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
}

// Request describes one upload.
type Request struct {
	Collection string
	Format     importjob.Format
	Source     io.Reader
	// Size is the byte length of Source, 0 when unknown.
	Size      int64
	BatchSize int
	// IDField names the field that supplies document ids; ids are generated
	// when empty.
	IDField string
}

// Service runs imports.
type Service struct {
	colls  Collections
	docs   DocumentWriter
	facets FacetUpdater
	engine Pinger
	cfg    Config
}

// New creates an ingestion service.
func New(colls Collections, docs DocumentWriter, facets FacetUpdater, engine Pinger, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{colls: colls, docs: docs, facets: facets, engine: engine, cfg: cfg}
}

// Import validates the request synchronously, then streams the file into the
// collection on its own goroutine. The returned channel yields one event per
// batch and a final done event, then closes. Cancelling ctx stops the job
// after the in-flight batch; the caller must keep Source readable until the
// channel closes.
func (s *Service) Import(ctx context.Context, req Request) (<-chan importjob.Event, error) {
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = s.cfg.DefaultBatchSize
	}
	if batchSize < s.cfg.MinBatchSize || batchSize > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]",
			domain.ErrInvalidBatchSize, batchSize, s.cfg.MinBatchSize, s.cfg.MaxBatchSize)
	}
	if _, err := importjob.ParseFormat(string(req.Format)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	if req.Source == nil {
		return nil, fmt.Errorf("import source is required")
	}

	col, err := s.colls.Get(ctx, req.Collection)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	release, err := s.colls.AcquireImport(req.Collection)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Ping(ctx); err != nil {
		release()
		return nil, fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}

	j := &job{
		svc:       s,
		id:        uuid.NewString(),
		col:       col,
		req:       req,
		batchSize: batchSize,
		failures:  importjob.NewFailureLog(s.cfg.MaxFailureDetails),
		events:    make(chan importjob.Event, s.cfg.EventBuffer),
		started:   time.Now(),
	}
	j.log = logger.FromContext(ctx).With(
		zap.String("job_id", j.id),
		zap.String("collection", col.Name()),
		zap.String("format", string(req.Format)),
	)

	metrics.IngestActiveJobs.Inc()
	go func() {
		defer metrics.IngestActiveJobs.Dec()
		defer release()
		j.run(ctx)
	}()
	return j.events, nil
}
