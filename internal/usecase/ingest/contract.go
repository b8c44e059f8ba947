package ingest

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
)

// Collections resolves schemas and hands out the per-collection import lock.
type Collections interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
	AcquireImport(name string) (release func(), err error)
}

// DocumentWriter stores a batch and reports each document's outcome by
// position. The error is set only when nothing could be sent; the slice may
// still carry reasons for documents rejected before sending.
type DocumentWriter interface {
	BulkWrite(ctx context.Context, col domcol.Collection, docs []domdoc.Document) ([]error, error)
}

// FacetUpdater folds written documents into the facet tables.
type FacetUpdater interface {
	Update(ctx context.Context, collection string, docs []domdoc.Document) ([]string, error)
}

// Pinger checks that the engine is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
