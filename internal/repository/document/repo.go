package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/repository/codec"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetEach(ctx context.Context, items []db.HashSetItem) ([]error, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements the document repositories of the ingest and document use cases.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// BulkWrite stores a batch in one pipelined round trip and reports each
// document's outcome by position. Values that do not fit the schema fail
// their document with domain.ErrInvalidDocument without reaching the store.
// The returned error is set only when nothing could be sent; the slice still
// carries those per-document reasons.
func (r *Repo) BulkWrite(ctx context.Context, col collection.Collection, docs []domdoc.Document) ([]error, error) {
	errs := make([]error, len(docs))
	items := make([]db.HashSetItem, 0, len(docs))
	pos := make([]int, 0, len(docs))

	for i, doc := range docs {
		fields, err := codec.Encode(col, doc.Fields())
		if err != nil {
			errs[i] = err
			continue
		}
		items = append(items, db.HashSetItem{Key: docKey(col.Name(), doc.ID()), Fields: fields})
		pos = append(pos, i)
	}
	if len(items) == 0 {
		return errs, nil
	}

	// one INCRBY reserves a contiguous sequence range for the batch
	last, err := r.store.IncrBy(ctx, seqKey(col.Name()), int64(len(items)))
	if err != nil {
		return errs, fmt.Errorf("allocate sequence %s: %w", col.Name(), err)
	}
	first := last - int64(len(items)) + 1
	for i := range items {
		items[i].Fields[codec.SeqField] = strconv.FormatInt(first+int64(i), 10)
	}

	itemErrs, err := r.store.HSetEach(ctx, items)
	if err != nil {
		return errs, fmt.Errorf("bulk write %s: %w", col.Name(), err)
	}
	for j, e := range itemErrs {
		errs[pos[j]] = e
	}
	return errs, nil
}

// Put replaces a document, keeping its insertion sequence when it already
// exists. Returns true if created.
func (r *Repo) Put(ctx context.Context, col collection.Collection, doc domdoc.Document) (bool, error) {
	key := docKey(col.Name(), doc.ID())
	fields, err := codec.Encode(col, doc.Fields())
	if err != nil {
		return false, err
	}

	old, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Errorf("hgetall %s: %w", key, err)
	}

	created := len(old) == 0
	if seq, ok := old[codec.SeqField]; ok {
		fields[codec.SeqField] = seq
	} else {
		n, err := r.store.IncrBy(ctx, seqKey(col.Name()), 1)
		if err != nil {
			return false, fmt.Errorf("allocate sequence %s: %w", col.Name(), err)
		}
		fields[codec.SeqField] = strconv.FormatInt(n, 10)
	}

	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}

	var stale []string
	for k := range old {
		if _, ok := fields[k]; !ok {
			stale = append(stale, k)
		}
	}
	if err := r.store.HDel(ctx, key, stale...); err != nil {
		return false, fmt.Errorf("hdel %s: %w", key, err)
	}
	return created, nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, col collection.Collection, id string) (domdoc.Document, error) {
	key := docKey(col.Name(), id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return domdoc.Reconstruct(id, codec.Decode(col, m)), nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, collectionName, id string) error {
	key := docKey(collectionName, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List pages through documents in insertion order. The cursor is the last
// sequence number seen; an empty cursor starts from the beginning.
func (r *Repo) List(ctx context.Context, col collection.Collection, cursor string, limit int) (
	[]domdoc.Document, string, error,
) {
	if limit <= 0 {
		limit = 20
	}

	q := &db.Query{
		IndexName: indexName(col.Name()),
		SortBy:    codec.SeqField,
		Limit:     limit + 1,
	}
	if cursor != "" {
		after, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || after < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", cursor, domain.ErrInvalidFilter)
		}
		lo := float64(after + 1)
		q.Filters = []db.Filter{{Field: codec.SeqField, Kind: db.FilterNumeric, Min: &lo}}
	}

	result, err := r.store.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("search list %s: %w", col.Name(), err)
	}

	docs := make([]domdoc.Document, 0, min(limit, len(result.Entries)))
	var lastSeq string
	for i, entry := range result.Entries {
		if i >= limit {
			break
		}
		id := extractDocID(entry.Key, col.Name())
		docs = append(docs, domdoc.Reconstruct(id, codec.Decode(col, entry.Fields)))
		lastSeq = entry.Fields[codec.SeqField]
	}

	var nextCursor string
	if len(result.Entries) > limit {
		nextCursor = lastSeq
	}
	return docs, nextCursor, nil
}

func docKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, collection, id)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func seqKey(collection string) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, collection)
}

func extractDocID(key, collection string) string {
	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
	return strings.TrimPrefix(key, prefix)
}
