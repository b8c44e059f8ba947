package collection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
//
//nolint:interfacebloat // collection repo needs hash + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	AlterIndex(ctx context.Context, name string, fields []db.IndexField) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
}

// Repo implements usecase/collection.Repository.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a collection: HSET metadata then FT.CREATE index.
// On FT.CREATE failure, rolls back the HSET via DEL.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	name := col.Name()

	metaKey := metaKey(name)
	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	indexDef, err := buildIndex(name, col.Fields())
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	hashData, err := collectionToHash(col)
	if err != nil {
		return err
	}

	if err := r.store.HSet(ctx, metaKey, hashData); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}

	// FT.CREATE; roll back the HSET on error
	if err := r.store.CreateIndex(ctx, indexDef); err != nil {
		cleanupErr := r.store.Del(ctx, metaKey)
		if errors.Is(err, db.ErrIndexExists) {
			err = domain.ErrAlreadyExists
		}
		return errors.Join(err, cleanupErr)
	}

	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}

	return collectionFromHash(m)
}

// List returns all collections sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi collections: %w", err)
	}

	collections := make([]domcol.Collection, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", keys[i], err)
		}
		collections = append(collections, col)
	}

	slices.SortFunc(collections, func(a, b domcol.Collection) int {
		if c := cmp.Compare(a.CreatedAt(), b.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name(), b.Name())
	})

	return collections, nil
}

// AddFields extends the index with the fields next has beyond prev and
// persists the new schema. The metadata is restored if FT.ALTER fails.
func (r *Repo) AddFields(ctx context.Context, prev, next domcol.Collection) error {
	added := next.Fields()[len(prev.Fields()):]
	schema, err := buildFields(added)
	if err != nil {
		return fmt.Errorf("build fields: %w", err)
	}

	prevHash, err := collectionToHash(prev)
	if err != nil {
		return err
	}
	nextHash, err := collectionToHash(next)
	if err != nil {
		return err
	}

	metaKey := metaKey(next.Name())
	if err := r.store.HSet(ctx, metaKey, nextHash); err != nil {
		return fmt.Errorf("hset collection %s: %w", next.Name(), err)
	}

	if err := r.store.AlterIndex(ctx, indexName(next.Name()), schema); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			err = domain.ErrNotFound
		}
		cleanupErr := r.store.HSet(ctx, metaKey, prevHash)
		return errors.Join(err, cleanupErr)
	}
	return nil
}

// Delete drops the index together with its documents, then removes the
// metadata hash and the sequence counter.
func (r *Repo) Delete(ctx context.Context, name string) error {
	metaKey := metaKey(name)

	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	dropErr := r.store.DropIndex(ctx, indexName(name), true)
	switch {
	case errors.Is(dropErr, db.ErrIndexNotFound):
		if !exists {
			return domain.ErrNotFound
		}
	case dropErr != nil:
		return fmt.Errorf("drop index %s: %w", name, dropErr)
	}

	if err := r.store.Del(ctx, metaKey, seqKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}
	return nil
}

// Stats reads engine statistics for the collection index.
func (r *Repo) Stats(ctx context.Context, name string) (domcol.Stats, error) {
	info, err := r.store.IndexInfo(ctx, indexName(name))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domcol.Stats{}, domain.ErrNotFound
		}
		return domcol.Stats{}, fmt.Errorf("index info %s: %w", name, err)
	}
	return domcol.Stats{
		NumDocs:          info.NumDocs,
		IndexingFailures: info.IndexingFailures,
		PercentIndexed:   info.PercentIndexed,
		Indexing:         info.Indexing,
		SizeMB:           info.SizeMB,
	}, nil
}

// Redis key patterns: facetdex:collection:{name}, facetdex:{name}:idx,
// facetdex:{name}:{id}, facetdex:seq:{name}

func metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

func collectionPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}

func seqKey(name string) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, name)
}
