package collection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/logger"
)

// DefaultInfoParallelism bounds concurrent FT.INFO calls while listing.
const DefaultInfoParallelism = 8

// Info is a collection as seen by operators: schema, side-store metadata,
// engine statistics and derived health. Collection is nil when the name is
// known only to the side-store.
type Info struct {
	Name       string
	Collection *domcol.Collection
	Metadata   domcol.Metadata
	Stats      domcol.Stats
	Health     domcol.Health
}

// Service handles collection lifecycle and owns the import lock.
type Service struct {
	repo        Repository
	facets      FacetRegistry
	meta        MetadataStore
	locks       *importLocks
	parallelism int
}

// New creates a collection service.
func New(repo Repository, facets FacetRegistry, meta MetadataStore) *Service {
	return &Service{
		repo:        repo,
		facets:      facets,
		meta:        meta,
		locks:       newImportLocks(),
		parallelism: DefaultInfoParallelism,
	}
}

// Create validates the schema, creates the engine index, registers empty
// facets and mirrors metadata into the side-store. A failure after the index
// exists drops it again.
func (s *Service) Create(
	ctx context.Context, name string, specs []domcol.FieldSpec, meta domcol.Metadata,
) (domcol.Collection, error) {
	fields, err := domcol.ParseFields(specs)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidSchema, err)
	}
	col, err := domcol.New(name, fields)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidSchema, err)
	}

	if err := s.repo.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	if err := s.facets.Register(ctx, name); err != nil {
		return domcol.Collection{}, s.rollbackCreate(ctx, name, fmt.Errorf("register facets: %w", err))
	}

	meta.CreatedAt = time.UnixMilli(col.CreatedAt()).UTC()
	if err := s.meta.Upsert(ctx, name, meta); err != nil {
		return domcol.Collection{}, s.rollbackCreate(ctx, name, fmt.Errorf("store metadata: %w", err))
	}

	logger.FromContext(ctx).Info("collection created",
		zap.String("collection", name),
		zap.Int("fields", len(fields)),
	)
	return col, nil
}

func (s *Service) rollbackCreate(ctx context.Context, name string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	return errors.Join(cause, s.repo.Delete(ctx, name), s.facets.Clear(ctx, name))
}

// Get retrieves a collection schema by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// Describe joins the schema, side-store metadata and engine statistics.
// An unreadable index grades the collection red instead of failing.
func (s *Service) Describe(ctx context.Context, name string) (Info, error) {
	col, colErr := s.repo.Get(ctx, name)
	if colErr != nil && !errors.Is(colErr, domain.ErrNotFound) {
		return Info{}, fmt.Errorf("get collection: %w", colErr)
	}

	meta, err := s.meta.Get(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if colErr != nil {
			return Info{}, fmt.Errorf("get collection: %w", colErr)
		}
	case err != nil:
		return Info{}, fmt.Errorf("get metadata: %w", err)
	}

	// known only to the side-store: no schema, graded red as in List
	if colErr != nil {
		return Info{Name: name, Metadata: meta, Health: domcol.HealthRed}, nil
	}

	info := Info{Name: name, Collection: &col, Metadata: meta}
	s.fillStats(ctx, &info)
	return info, nil
}

// List returns the union of collections registered in the engine and those
// annotated in the side-store, ordered by name, with health per collection.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	metas, err := s.meta.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}

	infos := make([]Info, 0, len(cols)+len(metas))
	seen := make(map[string]bool, len(cols))
	for i := range cols {
		name := cols[i].Name()
		seen[name] = true
		infos = append(infos, Info{Name: name, Collection: &cols[i], Metadata: metas[name]})
	}
	for name, meta := range metas {
		if !seen[name] {
			infos = append(infos, Info{Name: name, Metadata: meta, Health: domcol.HealthRed})
		}
	}
	slices.SortFunc(infos, func(a, b Info) int { return cmp.Compare(a.Name, b.Name) })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range infos {
		if infos[i].Collection == nil {
			continue
		}
		g.Go(func() error {
			s.fillStats(gctx, &infos[i])
			return nil
		})
	}
	_ = g.Wait()

	return infos, nil
}

func (s *Service) fillStats(ctx context.Context, info *Info) {
	stats, err := s.repo.Stats(ctx, info.Name)
	if err != nil {
		logger.FromContext(ctx).Warn("index info failed",
			zap.String("collection", info.Name),
			zap.Error(err),
		)
		info.Health = domcol.HealthRed
		return
	}
	info.Stats = stats
	info.Health = stats.Health()
}

// AddFields appends fields to the schema and the live index.
func (s *Service) AddFields(ctx context.Context, name string, specs []domcol.FieldSpec) (domcol.Collection, error) {
	extra, err := domcol.ParseFields(specs)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate fields: %w: %w", domain.ErrInvalidSchema, err)
	}

	prev, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	next, err := prev.WithFields(extra)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate fields: %w: %w", domain.ErrInvalidSchema, err)
	}

	if err := s.repo.AddFields(ctx, prev, next); err != nil {
		return domcol.Collection{}, fmt.Errorf("add fields: %w", err)
	}

	// metadata lag is tolerated; the schema registry is authoritative
	if meta, err := s.meta.Get(ctx, name); err == nil {
		if err := s.meta.Upsert(ctx, name, meta); err != nil {
			logger.FromContext(ctx).Warn("touch metadata failed", zap.String("collection", name), zap.Error(err))
		}
	}
	return next, nil
}

// Delete drops the collection with its documents, facets and metadata.
// It fails with domain.ErrCollectionBusy while an import is running.
func (s *Service) Delete(ctx context.Context, name string) error {
	release, err := s.locks.acquire(name)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	defer release()

	if err := s.repo.Delete(ctx, name); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete collection: %w", err)
		}
		// a side-store-only entry can still be removed
		if _, metaErr := s.meta.Get(ctx, name); metaErr != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}

	if err := s.facets.Clear(ctx, name); err != nil {
		return fmt.Errorf("clear facets: %w", err)
	}
	if err := s.meta.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}

	logger.FromContext(ctx).Info("collection deleted", zap.String("collection", name))
	return nil
}

// AcquireImport takes the per-collection import lock. A second acquisition
// fails immediately with domain.ErrCollectionBusy.
func (s *Service) AcquireImport(name string) (release func(), err error) {
	release, err = s.locks.acquire(name)
	if err != nil {
		return nil, fmt.Errorf("import into %s: %w", name, err)
	}
	return release, nil
}

// Busy reports whether an import currently holds the collection lock.
func (s *Service) Busy(name string) bool {
	return s.locks.busy(name)
}
