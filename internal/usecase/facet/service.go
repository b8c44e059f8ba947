// Package facet maintains per-field value/count tables incrementally as
// documents are written.
package facet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	domfacet "github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
	"github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// DefaultLimit is the number of values returned per field when the caller
// does not ask for a specific count.
const DefaultLimit = 100

// Service updates and serves facet tables.
type Service struct {
	repo         Repository
	colls        CollectionReader
	policy       domfacet.Policy
	defaultLimit int
}

// New creates a facet service.
func New(repo Repository, colls CollectionReader, policy domfacet.Policy) *Service {
	if policy.MaxCardinality <= 0 {
		policy.MaxCardinality = domfacet.DefaultMaxCardinality
	}
	return &Service{repo: repo, colls: colls, policy: policy, defaultLimit: DefaultLimit}
}

// WithDefaultLimit configures the per-field value count used when the caller
// passes no limit.
func (s *Service) WithDefaultLimit(n int) *Service {
	if n > 0 {
		s.defaultLimit = n
	}
	return s
}

// Update folds a batch of freshly written documents into the collection's
// facet tables and returns the fields whose tables changed. The type of a
// field is inferred from this batch the first time the field is seen and
// never revisited.
func (s *Service) Update(ctx context.Context, collection string, docs []domdoc.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	names, samples := collectSamples(docs)
	if len(names) == 0 {
		return nil, nil
	}

	states, err := s.repo.States(ctx, collection, names)
	if err != nil {
		return nil, fmt.Errorf("read facet states: %w", err)
	}

	var updated []string
	for _, name := range names {
		state, known := states[name]
		changed, err := s.apply(ctx, collection, name, state, known, samples[name])
		if errors.Is(err, domfacet.ErrTypeConflict) {
			// another writer stored the type first; count with the stored one
			fresh, rerr := s.repo.States(ctx, collection, []string{name})
			if rerr != nil {
				return updated, fmt.Errorf("read facet state %s: %w", name, rerr)
			}
			state, known = fresh[name]
			changed, err = s.apply(ctx, collection, name, state, known, samples[name])
		}
		if err != nil {
			return updated, fmt.Errorf("update facet %s: %w", name, err)
		}
		if changed {
			updated = append(updated, name)
		}
	}
	return updated, nil
}

// apply counts one field's sample with its stored type, or with a freshly
// inferred type when the field is new, and reports whether counts changed.
func (s *Service) apply(
	ctx context.Context, collection, name string, state domfacet.State, known bool, sample []value.Value,
) (bool, error) {
	typ := state.Type
	if !known {
		typ = domfacet.Infer(sample)
	}
	if known && !typ.Facetable() {
		return false, nil
	}

	delta := domfacet.Delta{Field: name, Type: typ, Counts: s.count(typ, sample)}
	if known && len(delta.Counts) == 0 {
		return false, nil
	}

	// an unknown field is applied even without counts so its type is persisted
	truncated, err := s.repo.Apply(ctx, collection, delta, s.policy.MaxCardinality)
	if err != nil {
		return false, err
	}
	if len(delta.Counts) == 0 {
		return false, nil
	}

	metrics.FacetUpdatesTotal.WithLabelValues(string(typ)).Inc()
	if truncated && !state.Truncated {
		metrics.FacetTruncationsTotal.Inc()
		logger.FromContext(ctx).Warn("facet truncated at cardinality cap",
			zap.String("collection", collection),
			zap.String("field", name),
			zap.Int("max_cardinality", s.policy.MaxCardinality),
		)
	}
	return true, nil
}

// count tallies admitted values in first-seen order.
func (s *Service) count(typ domfacet.Type, sample []value.Value) []domfacet.ValueCount {
	if !typ.Facetable() {
		return nil
	}
	idx := make(map[string]int)
	var out []domfacet.ValueCount
	for _, v := range sample {
		norm, ok := s.policy.Normalize(typ, v)
		if !ok {
			continue
		}
		if i, seen := idx[norm]; seen {
			out[i].Count++
			continue
		}
		idx[norm] = len(out)
		out = append(out, domfacet.ValueCount{Value: norm, Count: 1})
	}
	return out
}

// collectSamples groups non-null values by field name, keeping first-seen
// field order. Internal fields and names that would break the key layout
// are skipped.
func collectSamples(docs []domdoc.Document) ([]string, map[string][]value.Value) {
	var names []string
	samples := make(map[string][]value.Value)
	for _, doc := range docs {
		for name, v := range doc.Fields().All {
			if v.IsNull() || !trackable(name) {
				continue
			}
			if _, ok := samples[name]; !ok {
				names = append(names, name)
			}
			samples[name] = append(samples[name], v)
		}
	}
	return names, samples
}

func trackable(name string) bool {
	return name != "" && !strings.HasPrefix(name, field.ReservedPrefix) && !strings.ContainsAny(name, ":*?[]")
}

// Get returns one field's table, sorted by descending count and cut to
// limit values. limit is clamped to the cardinality cap.
func (s *Service) Get(ctx context.Context, collection, fieldName string, limit int) (domfacet.Table, error) {
	if _, err := s.colls.Get(ctx, collection); err != nil {
		return domfacet.Table{}, fmt.Errorf("get collection: %w", err)
	}
	tables, err := s.repo.Tables(ctx, collection, []string{fieldName})
	if err != nil {
		return domfacet.Table{}, fmt.Errorf("get facet: %w", err)
	}
	return tables[0].Top(s.limit(limit)), nil
}

// List returns the tables of every facetable field in one round trip.
func (s *Service) List(ctx context.Context, collection string, limit int) ([]domfacet.Table, error) {
	if _, err := s.colls.Get(ctx, collection); err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	fields, err := s.repo.Fields(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list facet fields: %w", err)
	}
	tables, err := s.repo.Tables(ctx, collection, fields)
	if err != nil {
		return nil, fmt.Errorf("list facets: %w", err)
	}

	limit = s.limit(limit)
	out := make([]domfacet.Table, 0, len(tables))
	for _, t := range tables {
		if !t.Type.Facetable() {
			continue
		}
		out = append(out, t.Top(limit))
	}
	return out, nil
}

// Clear drops every facet table of a collection.
func (s *Service) Clear(ctx context.Context, collection string) error {
	if err := s.repo.Clear(ctx, collection); err != nil {
		return fmt.Errorf("clear facets: %w", err)
	}
	return nil
}

// Register prepares empty facets for a new collection, removing anything a
// previous collection of the same name left behind.
func (s *Service) Register(ctx context.Context, collection string) error {
	return s.Clear(ctx, collection)
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		n = s.defaultLimit
	}
	return min(n, s.policy.MaxCardinality)
}
