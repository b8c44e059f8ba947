// Package metadata keeps operator-facing collection descriptions in a SQL
// side-store (SQLite or PostgreSQL).
package metadata

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/collection"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the side-store.
type Config struct {
	Driver string
	// Path is the SQLite database file; ":memory:" keeps it in memory.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string
}

// Store is the SQL-backed metadata repository.
type Store struct {
	db    *sql.DB
	style placeholderStyle
}

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db    *sql.DB
		style placeholderStyle
		err   error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err = openSQLite(cfg.Path)
		style = placeholderQuestion
	case DriverPostgres:
		db, err = openPostgres(cfg.DSN)
		style = placeholderDollar
	default:
		return nil, fmt.Errorf("unsupported metadata driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging metadata store: %w", err)
	}

	s := &Store{db: db, style: style}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// single connection: avoids "database is locked" and keeps :memory: shared
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate applies embedded SQL migrations that have not been recorded yet.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	slices.SortFunc(entries, func(a, b os.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		b := newBuilder(s.style)
		var exists int
		q := "SELECT COUNT(*) FROM schema_version WHERE version = " + b.Arg(version)
		if err := s.db.QueryRowContext(ctx, q, b.Args()...).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if err := s.apply(ctx, version, string(content)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, version int, stmt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("applying migration %d: %w", version, err)
	}
	b := newBuilder(s.style)
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ("+b.Arg(version)+")", b.Args()...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Collection metadata ---

// Upsert inserts or replaces the metadata row of a collection. A zero
// CreatedAt is stamped with the current time; UpdatedAt always is.
func (s *Store) Upsert(ctx context.Context, name string, meta collection.Metadata) error {
	now := time.Now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	b := newBuilder(s.style)
	q := fmt.Sprintf(`INSERT INTO collection_meta (name, title, description, icon, creator, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			icon = excluded.icon,
			creator = excluded.creator,
			updated_at = excluded.updated_at`,
		b.Arg(name), b.Arg(meta.Title), b.Arg(meta.Description), b.Arg(meta.Icon), b.Arg(meta.Creator),
		b.Arg(meta.CreatedAt.UnixMilli()), b.Arg(meta.UpdatedAt.UnixMilli()))
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return fmt.Errorf("upsert metadata %s: %w", name, err)
	}
	return nil
}

// Get returns the metadata of one collection.
func (s *Store) Get(ctx context.Context, name string) (collection.Metadata, error) {
	b := newBuilder(s.style)
	q := `SELECT name, title, description, icon, creator, created_at, updated_at
		FROM collection_meta WHERE name = ` + b.Arg(name)
	_, meta, err := scanRow(s.db.QueryRowContext(ctx, q, b.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return collection.Metadata{}, domain.ErrNotFound
	}
	if err != nil {
		return collection.Metadata{}, fmt.Errorf("get metadata %s: %w", name, err)
	}
	return meta, nil
}

// List returns every row keyed by collection name.
func (s *Store) List(ctx context.Context) (map[string]collection.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, title, description, icon, creator, created_at, updated_at
		FROM collection_meta`)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]collection.Metadata)
	for rows.Next() {
		name, meta, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[name] = meta
	}
	return out, rows.Err()
}

// Delete removes the row of a collection. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	b := newBuilder(s.style)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collection_meta WHERE name = "+b.Arg(name), b.Args()...); err != nil {
		return fmt.Errorf("delete metadata %s: %w", name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (string, collection.Metadata, error) {
	var (
		name                 string
		meta                 collection.Metadata
		createdAt, updatedAt int64
	)
	if err := row.Scan(&name, &meta.Title, &meta.Description, &meta.Icon, &meta.Creator, &createdAt, &updatedAt); err != nil {
		return "", collection.Metadata{}, err
	}
	meta.CreatedAt = time.UnixMilli(createdAt).UTC()
	meta.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return name, meta, nil
}
