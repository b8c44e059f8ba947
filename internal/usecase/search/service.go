// Package search answers free text and filter queries with highlights.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Service runs searches against a collection.
type Service struct {
	repo  Repository
	colls CollectionReader
	hl    Highlighter
}

// New creates a search service.
func New(repo Repository, colls CollectionReader) *Service {
	return &Service{repo: repo, colls: colls, hl: DefaultHighlighter()}
}

// Search executes req against the collection. When free text is present
// every hit carries highlight fragments for the text fields that matched.
func (s *Service) Search(ctx context.Context, collectionName string, req request.Request) (result.Page, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return result.Page{}, fmt.Errorf("get collection: %w", err)
	}

	page, err := s.repo.Search(ctx, col, req)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}

	if !req.HasText() {
		return page, nil
	}
	terms := Terms(req.Text())
	if len(terms) == 0 {
		return page, nil
	}
	textFields := col.TextFields()
	for i := range page.Results {
		r := &page.Results[i]
		hl := make(map[string][]string)
		for _, f := range textFields {
			v, ok := r.Fields().Get(f.Name())
			if !ok {
				continue
			}
			if frags := s.hl.Fragments(v.String(), terms); len(frags) > 0 {
				hl[f.Name()] = frags
			}
		}
		if len(hl) > 0 {
			r.SetHighlights(hl)
		}
	}
	return page, nil
}
