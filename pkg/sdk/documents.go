package facetdex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DocumentService manages documents in a collection.
type DocumentService struct {
	c          *Client
	collection string
}

type documentBody struct {
	Fields map[string]any `json:"fields"`
}

// Put creates or replaces a document. Returns true if it was created.
func (s *DocumentService) Put(ctx context.Context, id string, fields map[string]any) (_ bool, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("document.put", start, err) }()

	status, err := s.c.doJSON(ctx, http.MethodPut,
		collectionPath(s.collection, "documents", id), nil, documentBody{Fields: fields}, nil)
	if err != nil {
		return false, fmt.Errorf("put document: %w", err)
	}
	return status == http.StatusCreated, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (_ Document, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("document.get", start, err) }()

	var doc Document
	if _, err := s.c.doJSON(ctx, http.MethodGet,
		collectionPath(s.collection, "documents", id), nil, nil, &doc); err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Patch merges fields into a document. A nil value deletes the field.
func (s *DocumentService) Patch(ctx context.Context, id string, fields map[string]any) (_ Document, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("document.patch", start, err) }()

	var doc Document
	if _, err := s.c.doJSON(ctx, http.MethodPatch,
		collectionPath(s.collection, "documents", id), nil, documentBody{Fields: fields}, &doc); err != nil {
		return Document{}, fmt.Errorf("patch document: %w", err)
	}
	return doc, nil
}

// Delete removes a document.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("document.delete", start, err) }()

	if _, err := s.c.doJSON(ctx, http.MethodDelete,
		collectionPath(s.collection, "documents", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// List returns a page of documents. Pass the previous NextCursor to continue;
// an empty NextCursor marks the last page.
func (s *DocumentService) List(ctx context.Context, cursor string, limit int) (_ ListResult, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("document.list", start, err) }()

	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var page struct {
		Items      []Document `json:"items"`
		NextCursor *string    `json:"next_cursor"`
	}
	if _, err := s.c.doJSON(ctx, http.MethodGet,
		collectionPath(s.collection, "documents"), q, nil, &page); err != nil {
		return ListResult{}, fmt.Errorf("list documents: %w", err)
	}

	out := ListResult{Documents: page.Items}
	if page.NextCursor != nil {
		out.NextCursor = *page.NextCursor
	}
	return out, nil
}
