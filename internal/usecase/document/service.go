package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/document/patch"
	"github.com/kailas-cloud/facetdex/internal/logger"
)

// Browse page size defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service handles single-document writes and reads.
type Service struct {
	repo            Repository
	colls           CollectionReader
	facets          FacetUpdater
	defaultPageSize int
	maxPageSize     int
}

// New creates a document service.
func New(repo Repository, colls CollectionReader, facets FacetUpdater) *Service {
	return &Service{
		repo:            repo,
		colls:           colls,
		facets:          facets,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Put creates or replaces a document. Returns true if the document was created.
func (s *Service) Put(ctx context.Context, collectionName, id string, fields domdoc.Fields) (bool, error) {
	if err := domdoc.ValidateID(id); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return false, fmt.Errorf("get collection: %w", err)
	}

	doc := domdoc.Reconstruct(id, fields)
	created, err := s.repo.Put(ctx, col, doc)
	if err != nil {
		return false, fmt.Errorf("put document: %w", err)
	}
	s.updateFacets(ctx, collectionName, doc)
	return created, nil
}

// Get retrieves a document by collection and ID.
func (s *Service) Get(ctx context.Context, collectionName, id string) (domdoc.Document, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get collection: %w", err)
	}

	doc, err := s.repo.Get(ctx, col, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns one browse page in insertion order and the cursor of the
// next page ("" on the last page).
func (s *Service) List(
	ctx context.Context, collectionName, cursor string, limit int,
) ([]domdoc.Document, string, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return nil, "", fmt.Errorf("get collection: %w", err)
	}

	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	docs, nextCursor, err := s.repo.List(ctx, col, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list documents: %w", err)
	}
	return docs, nextCursor, nil
}

// Delete removes a document. Facet counts are left as they are.
func (s *Service) Delete(ctx context.Context, collectionName, id string) error {
	if _, err := s.colls.Get(ctx, collectionName); err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	if err := s.repo.Delete(ctx, collectionName, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Patch merges p into an existing document and returns the result.
// Only the patched values are counted into the facets.
func (s *Service) Patch(ctx context.Context, collectionName, id string, p patch.Patch) (domdoc.Document, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get collection: %w", err)
	}

	current, err := s.repo.Get(ctx, col, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}

	updated := p.Apply(current)
	if _, err := s.repo.Put(ctx, col, updated); err != nil {
		return domdoc.Document{}, fmt.Errorf("patch document: %w", err)
	}

	changed := domdoc.NewFields(p.Fields().Len())
	for k, v := range p.Fields().All {
		if !v.IsNull() {
			changed.Set(k, v)
		}
	}
	if changed.Len() > 0 {
		s.updateFacets(ctx, collectionName, domdoc.Reconstruct(id, changed))
	}
	return updated, nil
}

// updateFacets is best effort: the document is already stored.
func (s *Service) updateFacets(ctx context.Context, collectionName string, doc domdoc.Document) {
	if s.facets == nil {
		return
	}
	if _, err := s.facets.Update(ctx, collectionName, []domdoc.Document{doc}); err != nil {
		logger.FromContext(ctx).Warn("facet update failed",
			zap.String("collection", collectionName),
			zap.String("document", doc.ID()),
			zap.Error(err),
		)
	}
}
