package search

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, col domcol.Collection, req request.Request) (result.Page, error)
}

// CollectionReader resolves the schema a query is built against.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
