package document

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
)

// Repository defines the storage contract for single documents.
type Repository interface {
	Put(ctx context.Context, col domcol.Collection, doc domdoc.Document) (created bool, err error)
	Get(ctx context.Context, col domcol.Collection, id string) (domdoc.Document, error)
	List(ctx context.Context, col domcol.Collection, cursor string, limit int) (
		docs []domdoc.Document, nextCursor string, err error,
	)
	Delete(ctx context.Context, collectionName, id string) error
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// FacetUpdater folds written documents into the facet tables.
type FacetUpdater interface {
	Update(ctx context.Context, collection string, docs []domdoc.Document) ([]string, error)
}
