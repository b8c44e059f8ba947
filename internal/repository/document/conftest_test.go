package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn     func(ctx context.Context, key string, fields map[string]string) error
	hsetEachFn func(ctx context.Context, items []db.HashSetItem) ([]error, error)
	hgetAllFn  func(ctx context.Context, key string) (map[string]string, error)
	hdelFn     func(ctx context.Context, key string, fields ...string) error
	delFn      func(ctx context.Context, keys ...string) error
	existsFn   func(ctx context.Context, key string) (bool, error)
	incrByFn   func(ctx context.Context, key string, val int64) (int64, error)
	searchFn   func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetEach(ctx context.Context, items []db.HashSetItem) ([]error, error) {
	if m.hsetEachFn != nil {
		return m.hsetEachFn(ctx, items)
	}
	return make([]error, len(items)), nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HDel(ctx context.Context, key string, fields ...string) error {
	if m.hdelFn != nil {
		return m.hdelFn(ctx, key, fields...)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	return val, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testCollection() domcol.Collection {
	return domcol.Reconstruct("crops", []field.Field{
		field.Reconstruct("item", field.Text),
		field.Reconstruct("year", field.Integer),
	}, 1, 1, 1)
}

func testDoc(id, item string, year value.Value) domdoc.Document {
	fields := domdoc.NewFields(2)
	fields.Set("item", value.StringOf(item))
	fields.Set("year", year)
	return domdoc.Reconstruct(id, fields)
}
