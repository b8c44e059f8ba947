package facetdex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CollectionService manages collections.
type CollectionService struct {
	c *Client
}

// Create creates a new collection.
func (s *CollectionService) Create(
	ctx context.Context, name string, opts ...CollectionOption,
) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.create", start, err) }()

	cfg := &collectionConfig{Name: name}
	for _, o := range opts {
		o.applyCollection(cfg)
	}

	var info CollectionInfo
	if _, err := s.c.doJSON(ctx, http.MethodPost, apiPrefix+"/collections", nil, cfg, &info); err != nil {
		return CollectionInfo{}, fmt.Errorf("create collection: %w", err)
	}
	return info, nil
}

// Ensure creates a collection if it does not exist.
// If it already exists, returns its info; the schema is not compared.
func (s *CollectionService) Ensure(
	ctx context.Context, name string, opts ...CollectionOption,
) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.ensure", start, err) }()

	info, err := s.Create(ctx, name, opts...)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}

	info, err = s.Get(ctx, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("ensure collection: %w", err)
	}
	return info, nil
}

// Get retrieves a collection by name.
func (s *CollectionService) Get(ctx context.Context, name string) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.get", start, err) }()

	var info CollectionInfo
	if _, err := s.c.doJSON(ctx, http.MethodGet, collectionPath(name), nil, nil, &info); err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w", err)
	}
	return info, nil
}

// List returns every collection, following cursors until the last page.
func (s *CollectionService) List(ctx context.Context) (_ []CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.list", start, err) }()

	var (
		all    []CollectionInfo
		cursor string
	)
	for {
		q := url.Values{"limit": {strconv.Itoa(100)}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var page struct {
			Items      []CollectionInfo `json:"items"`
			NextCursor *string          `json:"next_cursor"`
			HasMore    bool             `json:"has_more"`
		}
		if _, err := s.c.doJSON(ctx, http.MethodGet, apiPrefix+"/collections", q, nil, &page); err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.NextCursor == nil {
			return all, nil
		}
		cursor = *page.NextCursor
	}
}

// AddFields appends fields to the schema. Existing fields cannot change.
func (s *CollectionService) AddFields(ctx context.Context, name string, fields ...Field) (_ CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.add_fields", start, err) }()

	body := struct {
		Fields []Field `json:"fields"`
	}{Fields: fields}
	var info CollectionInfo
	if _, err := s.c.doJSON(ctx, http.MethodPost, collectionPath(name, "fields"), nil, body, &info); err != nil {
		return CollectionInfo{}, fmt.Errorf("add fields: %w", err)
	}
	return info, nil
}

// Delete removes a collection with its documents and facets.
func (s *CollectionService) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { s.c.obs.observe("collection.delete", start, err) }()

	if _, err := s.c.doJSON(ctx, http.MethodDelete, collectionPath(name), nil, nil, nil); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
