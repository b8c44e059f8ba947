package collection

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	AddFields(ctx context.Context, prev, next domcol.Collection) error
	Delete(ctx context.Context, name string) error
	Stats(ctx context.Context, name string) (domcol.Stats, error)
}

// FacetRegistry prepares and drops per-collection facet tables.
type FacetRegistry interface {
	Register(ctx context.Context, collection string) error
	Clear(ctx context.Context, collection string) error
}

// MetadataStore mirrors operator-facing descriptions in the side-store.
type MetadataStore interface {
	Upsert(ctx context.Context, name string, meta domcol.Metadata) error
	Get(ctx context.Context, name string) (domcol.Metadata, error)
	List(ctx context.Context) (map[string]domcol.Metadata, error)
	Delete(ctx context.Context, name string) error
}
