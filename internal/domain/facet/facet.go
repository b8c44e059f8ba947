// Package facet models per-field value/count statistics.
package facet

import (
	"cmp"
	"errors"
	"slices"
)

// ErrTypeConflict reports that a field's stored type differs from the type a
// delta was counted with.
var ErrTypeConflict = errors.New("facet type conflict")

// Type is the facet type inferred from observed values.
type Type string

// Facet types.
const (
	TypeBoolean Type = "boolean"
	TypeKeyword Type = "keyword"
	// TypeText marks free-form values that are not tracked by exact value.
	TypeText Type = "text"
)

// Facetable reports whether values of this type are counted.
func (t Type) Facetable() bool { return t == TypeBoolean || t == TypeKeyword }

// ValueCount is one row of a facet table.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// State is the persisted per-field bookkeeping read before an update.
type State struct {
	Type      Type
	Truncated bool
	Distinct  int
}

// Table is the facet table of one field.
type Table struct {
	Field     string       `json:"field"`
	Type      Type         `json:"type"`
	Truncated bool         `json:"truncated"`
	Distinct  int          `json:"distinct"`
	Values    []ValueCount `json:"values"`
}

// SortValues orders values by descending count, ties by value.
func SortValues(values []ValueCount) {
	slices.SortFunc(values, func(a, b ValueCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
}

// Top returns a sorted copy of the table holding at most limit values.
// A non-positive limit keeps every value.
func (t Table) Top(limit int) Table {
	values := slices.Clone(t.Values)
	SortValues(values)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	out := t
	out.Values = values
	out.Distinct = len(t.Values)
	return out
}

// Delta is the set of increments computed for one field from one batch,
// in first-seen order.
type Delta struct {
	Field  string
	Type   Type
	Counts []ValueCount
}

// Total returns the sum of increments.
func (d Delta) Total() int64 {
	var n int64
	for _, c := range d.Counts {
		n += c.Count
	}
	return n
}
