package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	SetStore
	KVStore
	ScriptRunner
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HSetEach pipelines one HSET per item and reports each outcome by position.
	// The returned error is set only when no item could be sent.
	HSetEach(ctx context.Context, items []HashSetItem) ([]error, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// SetStore reads sets maintained by server-side scripts.
type SetStore interface {
	SMembers(ctx context.Context, key string) ([]string, error)
}

// KVStore provides counter operations.
type KVStore interface {
	// IncrBy adds val and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// ScriptRunner evaluates server-side Lua scripts.
type ScriptRunner interface {
	// EvalInts runs script and returns its integer array reply.
	EvalInts(ctx context.Context, script string, keys, args []string) ([]int64, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	AlterIndex(ctx context.Context, name string, fields []IndexField) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}
