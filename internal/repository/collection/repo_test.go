package collection

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
)

// --- Create ---

func TestCreate_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	col := testCollection(t)

	var created *db.IndexDefinition
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "facetdex:collection:crops" {
			t.Errorf("unexpected key: %s", key)
		}
		if fields["revision"] != "1" || fields["name"] != "crops" {
			t.Errorf("unexpected meta: %v", fields)
		}
		return nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	if err := repo.Create(ctx, col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FT.CREATE facetdex:crops:idx ON HASH PREFIX 1 facetdex:crops: SCHEMA " +
		"item TEXT " +
		"item AS item__exact TAG SEPARATOR \x1f CASESENSITIVE " +
		"area TAG SEPARATOR \x1f CASESENSITIVE SORTABLE " +
		"year NUMERIC SORTABLE " +
		"organic TAG " +
		"reported NUMERIC SORTABLE " +
		"__seq NUMERIC SORTABLE"
	if created == nil || created.String() != want {
		t.Errorf("index definition =\n%v\nwant\n%s", created, want)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	err := repo.Create(context.Background(), testCollection(t))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_HSetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetFn = func(_ context.Context, _ string, _ map[string]string) error {
		return errors.New("connection lost")
	}
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Error("FT.CREATE must not run after HSET failure")
		return nil
	}

	if err := repo.Create(context.Background(), testCollection(t)); err == nil {
		t.Fatal("expected error on HSET failure")
	}
}

func TestCreate_FTCreateError_Rollback(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted []string
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return errors.New("index limit reached")
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = append(deleted, keys...)
		return nil
	}

	err := repo.Create(context.Background(), testCollection(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !slices.Equal(deleted, []string{"facetdex:collection:crops"}) {
		t.Errorf("rollback deleted %v", deleted)
	}
}

func TestCreate_OrphanIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	err := repo.Create(context.Background(), testCollection(t))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// --- Get / List ---

func TestGet_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	col := testCollection(t)

	stored := map[string]string{}
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		stored = fields
		return nil
	}
	if err := repo.Create(context.Background(), col); err != nil {
		t.Fatalf("create: %v", err)
	}
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return stored, nil
	}

	got, err := repo.Get(context.Background(), "crops")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name() != "crops" || got.CreatedAt() != col.CreatedAt() || got.Revision() != 1 {
		t.Errorf("unexpected collection: %+v", got)
	}
	if len(got.Fields()) != len(col.Fields()) {
		t.Fatalf("fields = %v", got.Fields())
	}
	for i, f := range got.Fields() {
		if f != col.Fields()[i] {
			t.Errorf("field %d = %v, want %v", i, f, col.Fields()[i])
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_SortedByCreatedAt(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "facetdex:collection:*" {
			t.Errorf("pattern = %s", pattern)
		}
		return []string{"facetdex:collection:b", "facetdex:collection:a", "facetdex:collection:gone"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{
			{"name": "b", "created_at": "200", "fields_json": "[]"},
			{"name": "a", "created_at": "100", "fields_json": `[{"name":"x","type":"keyword"}]`},
			{},
		}, nil
	}

	cols, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0].Name() != "a" || cols[1].Name() != "b" {
		t.Fatalf("unexpected order: %v", cols)
	}
	if f, ok := cols[0].FieldByName("x"); !ok || f.FieldType() != field.Keyword {
		t.Errorf("field x not hydrated: %v", cols[0].Fields())
	}
}

func TestList_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	cols, err := repo.List(context.Background())
	if err != nil || len(cols) != 0 {
		t.Fatalf("List() = %v, %v", cols, err)
	}
}

// --- AddFields ---

func TestAddFields_AltersOnlyNewFields(t *testing.T) {
	repo, ms := newTestRepo(t)
	prev := testCollection(t)
	next, err := prev.WithFields([]field.Field{field.Reconstruct("note", field.Text)})
	if err != nil {
		t.Fatalf("WithFields: %v", err)
	}

	var altered []db.IndexField
	ms.alterIndexFn = func(_ context.Context, name string, fields []db.IndexField) error {
		if name != "facetdex:crops:idx" {
			t.Errorf("index = %s", name)
		}
		altered = fields
		return nil
	}
	var revision string
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		revision = fields["revision"]
		return nil
	}

	if err := repo.AddFields(context.Background(), prev, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(altered) != 2 || altered[0].Name != "note" || altered[1].Alias != "note__exact" {
		t.Errorf("altered fields = %+v", altered)
	}
	if revision != "2" {
		t.Errorf("revision = %s, want 2", revision)
	}
}

func TestAddFields_AlterFailureRestoresMeta(t *testing.T) {
	repo, ms := newTestRepo(t)
	prev := testCollection(t)
	next, _ := prev.WithFields([]field.Field{field.Reconstruct("note", field.Keyword)})

	var revisions []string
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		revisions = append(revisions, fields["revision"])
		return nil
	}
	ms.alterIndexFn = func(_ context.Context, _ string, _ []db.IndexField) error {
		return db.ErrIndexNotFound
	}

	err := repo.AddFields(context.Background(), prev, next)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !slices.Equal(revisions, []string{"2", "1"}) {
		t.Errorf("meta writes = %v, want [2 1]", revisions)
	}
}

// --- Delete ---

func TestDelete_DropsWithDocuments(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	var dd bool
	ms.dropIndexFn = func(_ context.Context, _ string, deleteDocs bool) error {
		dd = deleteDocs
		return nil
	}
	var deleted []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}

	if err := repo.Delete(context.Background(), "crops"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dd {
		t.Error("expected DD")
	}
	if !slices.Equal(deleted, []string{"facetdex:collection:crops", "facetdex:seq:crops"}) {
		t.Errorf("deleted = %v", deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.dropIndexFn = func(_ context.Context, _ string, _ bool) error { return db.ErrIndexNotFound }

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_MetaWithoutIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.dropIndexFn = func(_ context.Context, _ string, _ bool) error { return db.ErrIndexNotFound }

	if err := repo.Delete(context.Background(), "crops"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Stats ---

func TestStats(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexInfoFn = func(_ context.Context, _ string) (*db.IndexInfo, error) {
		return &db.IndexInfo{NumDocs: 7, PercentIndexed: 1, SizeMB: 0.5}, nil
	}

	st, err := repo.Stats(context.Background(), "crops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.NumDocs != 7 || st.Health() != domcol.HealthGreen {
		t.Errorf("stats = %+v", st)
	}
}

func TestStats_MissingIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexInfoFn = func(_ context.Context, _ string) (*db.IndexInfo, error) {
		return nil, db.ErrIndexNotFound
	}
	if _, err := repo.Stats(context.Background(), "crops"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
