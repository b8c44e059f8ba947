package facet

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domfacet "github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// Repository defines the storage contract for facet tables.
type Repository interface {
	States(ctx context.Context, collection string, fields []string) (map[string]domfacet.State, error)
	Apply(ctx context.Context, collection string, delta domfacet.Delta, maxCardinality int) (truncated bool, err error)
	Fields(ctx context.Context, collection string) ([]string, error)
	Tables(ctx context.Context, collection string, fields []string) ([]domfacet.Table, error)
	Clear(ctx context.Context, collection string) error
}

// CollectionReader checks that a collection exists before its facets are read.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
