package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// AlterIndex appends fields to an existing index schema (FT.ALTER ... SCHEMA ADD).
// Documents already stored are re-indexed in the background by the server.
func (s *Store) AlterIndex(ctx context.Context, name string, fields []db.IndexField) error {
	if err := db.ValidateFields(fields); err != nil {
		return err
	}
	args := []string{name, "SCHEMA", "ADD"}
	for i := range fields {
		args = append(args, db.FieldArgs(&fields[i])...)
	}

	cmd := s.b().Arbitrary("FT.ALTER").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpAlterIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. With deleteDocs the indexed hashes go too (DD).
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexInfo reads document count, indexing progress and memory from FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return parseIndexInfo(raw), nil
}

// sizeKeys are summed when the server does not report total_index_memory_sz_mb.
var sizeKeys = []string{
	"inverted_sz_mb", "doc_table_size_mb", "offset_vectors_sz_mb",
	"sortable_values_size_mb", "key_table_size_mb",
}

func parseIndexInfo(raw []rueidis.RedisMessage) *db.IndexInfo {
	kv := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		if v, ok := infoScalar(raw[i+1]); ok {
			kv[key] = v
		}
	}

	info := &db.IndexInfo{
		NumDocs:          parseInt(kv["num_docs"]),
		IndexingFailures: parseInt(kv["hash_indexing_failures"]),
		PercentIndexed:   parseFloat(kv["percent_indexed"]),
		Indexing:         parseInt(kv["indexing"]) != 0,
	}
	if total, ok := kv["total_index_memory_sz_mb"]; ok {
		info.SizeMB = parseFloat(total)
	} else {
		for _, k := range sizeKeys {
			info.SizeMB += parseFloat(kv[k])
		}
	}
	return info
}

func infoScalar(m rueidis.RedisMessage) (string, bool) {
	if s, err := m.ToString(); err == nil {
		return s, true
	}
	if i, err := m.ToInt64(); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	if f, err := m.ToFloat64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, _ := strconv.ParseFloat(s, 64)
	return int64(f)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageHash
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		if idx.Fields[i].Name == "" {
			return nil, errors.New("field name is required")
		}
		args = append(args, db.FieldArgs(&idx.Fields[i])...)
	}

	return args, nil
}
