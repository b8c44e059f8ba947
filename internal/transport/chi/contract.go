package chi

import (
	"context"

	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/patch"
	"github.com/kailas-cloud/facetdex/internal/domain/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/importjob"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	collectionuc "github.com/kailas-cloud/facetdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/facetdex/internal/usecase/ingest"
)

// CollectionService is the schema mapper as seen by the handlers.
type CollectionService interface {
	Create(ctx context.Context, name string, specs []domcol.FieldSpec, meta domcol.Metadata) (domcol.Collection, error)
	Describe(ctx context.Context, name string) (collectionuc.Info, error)
	List(ctx context.Context) ([]collectionuc.Info, error)
	AddFields(ctx context.Context, name string, specs []domcol.FieldSpec) (domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// DocumentService serves single-document operations.
type DocumentService interface {
	Put(ctx context.Context, collection, id string, fields domdoc.Fields) (bool, error)
	Get(ctx context.Context, collection, id string) (domdoc.Document, error)
	List(ctx context.Context, collection, cursor string, limit int) ([]domdoc.Document, string, error)
	Delete(ctx context.Context, collection, id string) error
	Patch(ctx context.Context, collection, id string, p patch.Patch) (domdoc.Document, error)
}

// FacetService reads facet tables.
type FacetService interface {
	Get(ctx context.Context, collection, field string, limit int) (facet.Table, error)
	List(ctx context.Context, collection string, limit int) ([]facet.Table, error)
}

// SearchService runs queries.
type SearchService interface {
	Search(ctx context.Context, collection string, req request.Request) (result.Page, error)
}

// ImportService starts ingestion jobs.
type ImportService interface {
	Import(ctx context.Context, req ingestuc.Request) (<-chan importjob.Event, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
