package collection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcol "github.com/kailas-cloud/facetdex/internal/domain/collection"
	"github.com/kailas-cloud/facetdex/internal/domain/collection/field"
)

// --- Mocks ---

type mockRepo struct {
	mu         sync.Mutex
	created    domcol.Collection
	getResult  domcol.Collection
	listResult []domcol.Collection
	stats      map[string]domcol.Stats
	createErr  error
	getErr     error
	listErr    error
	deleteErr  error
	alterErr   error
	deleted    []string
	altered    *domcol.Collection
}

func (m *mockRepo) Create(_ context.Context, col domcol.Collection) error {
	m.created = col
	return m.createErr
}

func (m *mockRepo) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.getResult, m.getErr
}

func (m *mockRepo) List(_ context.Context) ([]domcol.Collection, error) {
	return m.listResult, m.listErr
}

func (m *mockRepo) AddFields(_ context.Context, _, next domcol.Collection) error {
	m.altered = &next
	return m.alterErr
}

func (m *mockRepo) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	return m.deleteErr
}

func (m *mockRepo) Stats(_ context.Context, name string) (domcol.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[name]
	if !ok {
		return domcol.Stats{}, domain.ErrNotFound
	}
	return st, nil
}

type mockFacets struct {
	registerErr error
	registered  []string
	cleared     []string
}

func (m *mockFacets) Register(_ context.Context, name string) error {
	m.registered = append(m.registered, name)
	return m.registerErr
}

func (m *mockFacets) Clear(_ context.Context, name string) error {
	m.cleared = append(m.cleared, name)
	return nil
}

type mockMeta struct {
	rows      map[string]domcol.Metadata
	upsertErr error
	upserts   int
}

func newMockMeta() *mockMeta { return &mockMeta{rows: map[string]domcol.Metadata{}} }

func (m *mockMeta) Upsert(_ context.Context, name string, meta domcol.Metadata) error {
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rows[name] = meta
	return nil
}

func (m *mockMeta) Get(_ context.Context, name string) (domcol.Metadata, error) {
	meta, ok := m.rows[name]
	if !ok {
		return domcol.Metadata{}, domain.ErrNotFound
	}
	return meta, nil
}

func (m *mockMeta) List(_ context.Context) (map[string]domcol.Metadata, error) {
	return m.rows, nil
}

func (m *mockMeta) Delete(_ context.Context, name string) error {
	delete(m.rows, name)
	return nil
}

func makeCollection(t *testing.T, name string, fields ...field.Field) domcol.Collection {
	t.Helper()
	col, err := domcol.New(name, fields)
	if err != nil {
		t.Fatalf("domcol.New: %v", err)
	}
	return col
}

func specs(kv ...string) []domcol.FieldSpec {
	out := make([]domcol.FieldSpec, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, domcol.FieldSpec{Name: kv[i], Type: field.Type(kv[i+1])})
	}
	return out
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	facets := &mockFacets{}
	meta := newMockMeta()
	svc := New(repo, facets, meta)

	col, err := svc.Create(context.Background(), "crops",
		specs("item", "text", "area", "keyword", "year", "integer"),
		domcol.Metadata{Title: "Crops"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "crops" || len(col.Fields()) != 3 {
		t.Errorf("unexpected collection %q with %d fields", col.Name(), len(col.Fields()))
	}
	if repo.created.Name() != "crops" {
		t.Error("expected repo.Create call")
	}
	if len(facets.registered) != 1 {
		t.Error("expected facets registered")
	}
	if meta.rows["crops"].Title != "Crops" {
		t.Error("expected metadata mirrored")
	}
	if meta.rows["crops"].CreatedAt.IsZero() {
		t.Error("expected created_at stamped")
	}
}

func TestCreate_InvalidSchema(t *testing.T) {
	tests := []struct {
		name   string
		col    string
		fields []domcol.FieldSpec
		want   string
	}{
		{"empty name", "", nil, "name is required"},
		{"bad type", "crops", specs("item", "vector"), "fields[0]"},
		{"duplicate", "crops", specs("item", "text", "item", "keyword"), "fields[1]"},
		{"reserved field", "crops", specs("__seq", "long"), "fields[0]"},
		{"reserved collection", "facets", nil, "reserved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			svc := New(repo, &mockFacets{}, newMockMeta())

			_, err := svc.Create(context.Background(), tt.col, tt.fields, domcol.Metadata{})
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
			if repo.created.Name() != "" {
				t.Error("repo must not be called")
			}
		})
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo := &mockRepo{createErr: domain.ErrAlreadyExists}
	facets := &mockFacets{}
	svc := New(repo, facets, newMockMeta())

	_, err := svc.Create(context.Background(), "crops", nil, domcol.Metadata{})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if len(facets.registered) != 0 {
		t.Error("facets must not be registered")
	}
}

func TestCreate_MetadataFailureRollsBack(t *testing.T) {
	repo := &mockRepo{}
	facets := &mockFacets{}
	meta := newMockMeta()
	meta.upsertErr = errors.New("disk full")
	svc := New(repo, facets, meta)

	_, err := svc.Create(context.Background(), "crops", nil, domcol.Metadata{})
	if !errors.Is(err, meta.upsertErr) {
		t.Fatalf("expected metadata error, got %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "crops" {
		t.Errorf("expected index rollback, got %v", repo.deleted)
	}
	if len(facets.cleared) != 1 {
		t.Error("expected facets cleared on rollback")
	}
}

func TestCreate_FacetFailureRollsBack(t *testing.T) {
	repo := &mockRepo{}
	facets := &mockFacets{registerErr: errors.New("timeout")}
	meta := newMockMeta()
	svc := New(repo, facets, meta)

	_, err := svc.Create(context.Background(), "crops", nil, domcol.Metadata{})
	if !errors.Is(err, facets.registerErr) {
		t.Fatalf("expected register error, got %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Error("expected index rollback")
	}
	if meta.upserts != 0 {
		t.Error("metadata must not be written")
	}
}

func TestDescribe_Idempotent(t *testing.T) {
	col := makeCollection(t, "crops", field.Reconstruct("item", field.Text))
	repo := &mockRepo{
		getResult: col,
		stats:     map[string]domcol.Stats{"crops": {NumDocs: 10, PercentIndexed: 1}},
	}
	meta := newMockMeta()
	meta.rows["crops"] = domcol.Metadata{Title: "Crops", Creator: "fao"}
	svc := New(repo, &mockFacets{}, meta)

	first, err := svc.Describe(context.Background(), "crops")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Describe(context.Background(), "crops")
	if err != nil {
		t.Fatal(err)
	}
	if first.Metadata != second.Metadata {
		t.Error("metadata differs between calls")
	}
	if len(first.Collection.Fields()) != len(second.Collection.Fields()) ||
		first.Collection.Fields()[0] != second.Collection.Fields()[0] {
		t.Error("schema differs between calls")
	}
	if first.Health != domcol.HealthGreen || first.Stats.NumDocs != 10 {
		t.Errorf("unexpected health %q stats %+v", first.Health, first.Stats)
	}
}

func TestDescribe_IndexMissingIsRed(t *testing.T) {
	repo := &mockRepo{getResult: makeCollection(t, "crops"), stats: map[string]domcol.Stats{}}
	svc := New(repo, &mockFacets{}, newMockMeta())

	info, err := svc.Describe(context.Background(), "crops")
	if err != nil {
		t.Fatal(err)
	}
	if info.Health != domcol.HealthRed {
		t.Errorf("expected red, got %q", info.Health)
	}
}

func TestDescribe_NotFound(t *testing.T) {
	svc := New(&mockRepo{getErr: domain.ErrNotFound}, &mockFacets{}, newMockMeta())
	_, err := svc.Describe(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDescribe_SideStoreOnlyIsRed(t *testing.T) {
	meta := newMockMeta()
	meta.rows["legacy"] = domcol.Metadata{Title: "Legacy"}
	svc := New(&mockRepo{getErr: domain.ErrNotFound}, &mockFacets{}, meta)

	info, err := svc.Describe(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Collection != nil {
		t.Error("side-store-only entry must carry no schema")
	}
	if info.Health != domcol.HealthRed || info.Metadata.Title != "Legacy" {
		t.Errorf("info = %+v", info)
	}
}

func TestList_UnionWithHealth(t *testing.T) {
	repo := &mockRepo{
		listResult: []domcol.Collection{makeCollection(t, "trade"), makeCollection(t, "crops"), makeCollection(t, "prices")},
		stats: map[string]domcol.Stats{
			"crops": {NumDocs: 5, PercentIndexed: 1},
			"trade": {NumDocs: 3, Indexing: true},
		},
	}
	meta := newMockMeta()
	meta.rows["crops"] = domcol.Metadata{Title: "Crops"}
	meta.rows["legacy"] = domcol.Metadata{Title: "Legacy"}
	svc := New(repo, &mockFacets{}, meta)

	infos, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		name   string
		health domcol.Health
	}{
		{"crops", domcol.HealthGreen},
		{"legacy", domcol.HealthRed},
		{"prices", domcol.HealthRed},
		{"trade", domcol.HealthYellow},
	}
	if len(infos) != len(want) {
		t.Fatalf("got %d infos, want %d", len(infos), len(want))
	}
	for i, w := range want {
		if infos[i].Name != w.name || infos[i].Health != w.health {
			t.Errorf("infos[%d] = %s/%s, want %s/%s", i, infos[i].Name, infos[i].Health, w.name, w.health)
		}
	}
	if infos[0].Metadata.Title != "Crops" {
		t.Error("expected metadata joined")
	}
	if infos[1].Collection != nil {
		t.Error("side-store-only entry has no schema")
	}
}

func TestList_RepoError(t *testing.T) {
	repoErr := errors.New("connection refused")
	svc := New(&mockRepo{listErr: repoErr}, &mockFacets{}, newMockMeta())
	if _, err := svc.List(context.Background()); !errors.Is(err, repoErr) {
		t.Errorf("expected repo error, got %v", err)
	}
}

func TestAddFields_Success(t *testing.T) {
	repo := &mockRepo{getResult: makeCollection(t, "crops", field.Reconstruct("item", field.Text))}
	meta := newMockMeta()
	meta.rows["crops"] = domcol.Metadata{Title: "Crops"}
	svc := New(repo, &mockFacets{}, meta)

	next, err := svc.AddFields(context.Background(), "crops", specs("value", "double"))
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Fields()) != 2 || next.Revision() != 2 {
		t.Errorf("fields=%d revision=%d", len(next.Fields()), next.Revision())
	}
	if repo.altered == nil {
		t.Error("expected repo.AddFields call")
	}
	if meta.upserts != 1 {
		t.Error("expected metadata touched")
	}
}

func TestAddFields_Redefine(t *testing.T) {
	repo := &mockRepo{getResult: makeCollection(t, "crops", field.Reconstruct("item", field.Text))}
	svc := New(repo, &mockFacets{}, newMockMeta())

	_, err := svc.AddFields(context.Background(), "crops", specs("item", "keyword"))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("expected ErrInvalidSchema, got %v", err)
	}
	if repo.altered != nil {
		t.Error("repo must not be called")
	}
}

func TestDelete_Cascades(t *testing.T) {
	repo := &mockRepo{}
	facets := &mockFacets{}
	meta := newMockMeta()
	meta.rows["crops"] = domcol.Metadata{Title: "Crops"}
	svc := New(repo, facets, meta)

	if err := svc.Delete(context.Background(), "crops"); err != nil {
		t.Fatal(err)
	}
	if len(facets.cleared) != 1 {
		t.Error("expected facets cleared")
	}
	if _, ok := meta.rows["crops"]; ok {
		t.Error("expected metadata removed")
	}
}

func TestDelete_Busy(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockFacets{}, newMockMeta())

	release, err := svc.AcquireImport("crops")
	if err != nil {
		t.Fatal(err)
	}

	err = svc.Delete(context.Background(), "crops")
	if !errors.Is(err, domain.ErrCollectionBusy) {
		t.Fatalf("expected ErrCollectionBusy, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Error("index must not be dropped while busy")
	}

	release()
	if err := svc.Delete(context.Background(), "crops"); err != nil {
		t.Errorf("delete after release: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := New(&mockRepo{deleteErr: domain.ErrNotFound}, &mockFacets{}, newMockMeta())
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_SideStoreOnly(t *testing.T) {
	meta := newMockMeta()
	meta.rows["legacy"] = domcol.Metadata{}
	svc := New(&mockRepo{deleteErr: domain.ErrNotFound}, &mockFacets{}, meta)

	if err := svc.Delete(context.Background(), "legacy"); err != nil {
		t.Fatal(err)
	}
	if _, ok := meta.rows["legacy"]; ok {
		t.Error("expected metadata removed")
	}
}

func TestAcquireImport_Exclusive(t *testing.T) {
	svc := New(&mockRepo{}, &mockFacets{}, newMockMeta())

	release, err := svc.AcquireImport("crops")
	if err != nil {
		t.Fatal(err)
	}
	if !svc.Busy("crops") {
		t.Error("expected busy")
	}
	if _, err := svc.AcquireImport("crops"); !errors.Is(err, domain.ErrCollectionBusy) {
		t.Errorf("expected ErrCollectionBusy, got %v", err)
	}
	other, err := svc.AcquireImport("trade")
	if err != nil {
		t.Errorf("other collections must not be blocked: %v", err)
	}
	other()

	release()
	release()
	if svc.Busy("crops") {
		t.Error("expected released")
	}
}
