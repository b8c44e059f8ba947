// Package facet persists per-field facet tables in Redis hashes.
package facet

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domfacet "github.com/kailas-cloud/facetdex/internal/domain/facet"
)

// applyScript admits new values while the table is below the cap and always
// increments known ones, so concurrent writers cannot overshoot it. A delta
// whose type differs from the stored one is rejected without counting.
//
// KEYS: values hash, meta hash, field registry set
// ARGV: cap, field, type, then value/count pairs
// Returns {admitted, truncated}, or {-1, 0} on a type conflict.
const applyScript = `
local cap = tonumber(ARGV[1])
redis.call('SADD', KEYS[3], ARGV[2])
redis.call('HSETNX', KEYS[2], 'type', ARGV[3])
if redis.call('HGET', KEYS[2], 'type') ~= ARGV[3] then
  return {-1, 0}
end
local size = redis.call('HLEN', KEYS[1])
local admitted = 0
local truncated = 0
for i = 4, #ARGV, 2 do
  local v = ARGV[i]
  local n = tonumber(ARGV[i + 1])
  if redis.call('HEXISTS', KEYS[1], v) == 1 then
    redis.call('HINCRBY', KEYS[1], v, n)
    admitted = admitted + 1
  elseif size < cap then
    redis.call('HINCRBY', KEYS[1], v, n)
    size = size + 1
    admitted = admitted + 1
  else
    truncated = 1
  end
end
if truncated == 1 then
  redis.call('HSET', KEYS[2], 'truncated', '1')
end
return {admitted, truncated}
`

// store is the consumer interface for facet tables (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	EvalInts(ctx context.Context, script string, keys, args []string) ([]int64, error)
}

// Repo implements usecase/facet.Repository.
type Repo struct {
	store store
}

// New creates a facet repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// States reads the persisted type and truncation flag of each field.
// Fields never seen before are absent from the result.
func (r *Repo) States(ctx context.Context, collection string, fields []string) (map[string]domfacet.State, error) {
	if len(fields) == 0 {
		return map[string]domfacet.State{}, nil
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = metaKey(collection, f)
	}
	metas, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read facet state %s: %w", collection, err)
	}

	out := make(map[string]domfacet.State, len(fields))
	for i, m := range metas {
		t := m["type"]
		if t == "" {
			continue
		}
		out[fields[i]] = domfacet.State{Type: domfacet.Type(t), Truncated: m["truncated"] == "1"}
	}
	return out, nil
}

// Apply adds a delta to the field's table within the cardinality cap and
// reports whether any value was dropped at the cap. A delta with no counts
// only records the field type. A delta typed differently from the stored
// type fails with domfacet.ErrTypeConflict.
func (r *Repo) Apply(ctx context.Context, collection string, delta domfacet.Delta, maxCardinality int) (bool, error) {
	keys := []string{
		valuesKey(collection, delta.Field),
		metaKey(collection, delta.Field),
		registryKey(collection),
	}
	args := make([]string, 0, 3+2*len(delta.Counts))
	args = append(args, strconv.Itoa(maxCardinality), delta.Field, string(delta.Type))
	for _, c := range delta.Counts {
		args = append(args, c.Value, strconv.FormatInt(c.Count, 10))
	}

	out, err := r.store.EvalInts(ctx, applyScript, keys, args)
	if err != nil {
		return false, fmt.Errorf("apply facet %s.%s: %w", collection, delta.Field, err)
	}
	if len(out) != 2 {
		return false, fmt.Errorf("apply facet %s.%s: unexpected reply %v", collection, delta.Field, out)
	}
	if out[0] < 0 {
		return false, fmt.Errorf("apply facet %s.%s: %w", collection, delta.Field, domfacet.ErrTypeConflict)
	}
	return out[1] == 1, nil
}

// Fields lists tracked fields by name.
func (r *Repo) Fields(ctx context.Context, collection string) ([]string, error) {
	fields, err := r.store.SMembers(ctx, registryKey(collection))
	if err != nil {
		return nil, fmt.Errorf("list facet fields %s: %w", collection, err)
	}
	slices.Sort(fields)
	return fields, nil
}

// Tables reads the given fields' tables in one pipelined round trip.
// Values are unsorted. Untracked fields yield domain.ErrNotFound.
func (r *Repo) Tables(ctx context.Context, collection string, fields []string) ([]domfacet.Table, error) {
	if len(fields) == 0 {
		return []domfacet.Table{}, nil
	}
	keys := make([]string, 0, 2*len(fields))
	for _, f := range fields {
		keys = append(keys, metaKey(collection, f), valuesKey(collection, f))
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read facets %s: %w", collection, err)
	}

	tables := make([]domfacet.Table, len(fields))
	for i, f := range fields {
		meta, values := hashes[2*i], hashes[2*i+1]
		if meta["type"] == "" {
			return nil, fmt.Errorf("facet field %s: %w", f, domain.ErrNotFound)
		}
		tables[i] = tableFromHashes(f, meta, values)
	}
	return tables, nil
}

// Clear removes every facet key of a collection. The registry lists every
// field the apply script ever touched, so no keyspace scan is needed.
func (r *Repo) Clear(ctx context.Context, collection string) error {
	fields, err := r.store.SMembers(ctx, registryKey(collection))
	if err != nil {
		return fmt.Errorf("list facet fields %s: %w", collection, err)
	}
	keys := make([]string, 0, 2*len(fields)+1)
	for _, f := range fields {
		keys = append(keys, valuesKey(collection, f), metaKey(collection, f))
	}
	keys = append(keys, registryKey(collection))
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("clear facets %s: %w", collection, err)
	}
	return nil
}

func tableFromHashes(field string, meta, values map[string]string) domfacet.Table {
	t := domfacet.Table{
		Field:     field,
		Type:      domfacet.Type(meta["type"]),
		Truncated: meta["truncated"] == "1",
		Values:    make([]domfacet.ValueCount, 0, len(values)),
	}
	for v, s := range values {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		t.Values = append(t.Values, domfacet.ValueCount{Value: v, Count: n})
	}
	t.Distinct = len(t.Values)
	return t
}

// Redis key patterns: facetdex:facets:{col}, facetdex:facets:{col}:{field},
// facetdex:facets:{col}:{field}:meta. The braces are a hash tag, so every key
// of one collection maps to the same cluster slot.

func registryKey(collection string) string {
	return fmt.Sprintf("%sfacets:{%s}", domain.KeyPrefix, collection)
}

func valuesKey(collection, field string) string {
	return fmt.Sprintf("%sfacets:{%s}:%s", domain.KeyPrefix, collection, field)
}

func metaKey(collection, field string) string {
	return fmt.Sprintf("%sfacets:{%s}:%s:meta", domain.KeyPrefix, collection, field)
}
