package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openMemory(t)

	versions, err := s.AppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	ctx := context.Background()

	s1, err := Open(ctx, Config{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	require.NoError(t, s1.Upsert(ctx, "crops", collection.Metadata{Title: "Crops"}))
	require.NoError(t, s1.Close())

	s2, err := Open(ctx, Config{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	defer s2.Close()

	versions, err := s2.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)

	meta, err := s2.Get(ctx, "crops")
	require.NoError(t, err)
	assert.Equal(t, "Crops", meta.Title)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metadata driver")
}

func TestOpen_InvalidPostgresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: "postgres://%zz"})
	require.Error(t, err)
}

func TestUpsert_InsertAndUpdate(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Upsert(ctx, "crops", collection.Metadata{
		Title:     "Crops",
		Creator:   "fao",
		CreatedAt: created,
	}))

	first, err := s.Get(ctx, "crops")
	require.NoError(t, err)
	assert.Equal(t, "Crops", first.Title)
	assert.Equal(t, "fao", first.Creator)
	assert.True(t, first.CreatedAt.Equal(created))

	require.NoError(t, s.Upsert(ctx, "crops", collection.Metadata{
		Title:       "Crop production",
		Description: "FAOSTAT extract",
		Icon:        "wheat",
		CreatedAt:   time.Now(),
	}))

	second, err := s.Get(ctx, "crops")
	require.NoError(t, err)
	assert.Equal(t, "Crop production", second.Title)
	assert.Equal(t, "FAOSTAT extract", second.Description)
	assert.Equal(t, "wheat", second.Icon)
	assert.Empty(t, second.Creator)
	assert.True(t, second.CreatedAt.Equal(created), "created_at survives updates")
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestGet_NotFound(t *testing.T) {
	s := openMemory(t)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	for _, name := range []string{"trade", "crops", "livestock"} {
		require.NoError(t, s.Upsert(ctx, name, collection.Metadata{Title: "title " + name}))
	}

	metas, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "title crops", metas["crops"].Title)
	assert.Equal(t, "title trade", metas["trade"].Title)
	assert.False(t, metas["livestock"].CreatedAt.IsZero())
}

func TestList_Empty(t *testing.T) {
	s := openMemory(t)

	recs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDelete(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "crops", collection.Metadata{Title: "Crops"}))
	require.NoError(t, s.Delete(ctx, "crops"))

	_, err := s.Get(ctx, "crops")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "crops"), "deleting a missing row is a no-op")
}

func TestBuilder_Placeholders(t *testing.T) {
	q := newBuilder(placeholderQuestion)
	assert.Equal(t, "?", q.Arg(1))
	assert.Equal(t, "?", q.Arg("a"))
	assert.Equal(t, []any{1, "a"}, q.Args())

	d := newBuilder(placeholderDollar)
	assert.Equal(t, "$1", d.Arg(1))
	assert.Equal(t, "$2", d.Arg("a"))
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_collection_meta.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = parseMigrationVersion("init.sql")
	assert.Error(t, err)
}
