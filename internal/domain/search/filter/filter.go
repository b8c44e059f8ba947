package filter

import (
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// MaxConditions is the maximum number of filter conditions per request.
const MaxConditions = 32

// Expression is a conjunction of field conditions.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression. Keys must be unique.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]bool, len(must))
	for _, c := range must {
		if seen[c.key] {
			return Expression{}, fmt.Errorf("duplicate filter on %q", c.key)
		}
		seen[c.key] = true
	}
	return Expression{must: must}, nil
}

// Must returns the conditions, all of which must hold.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is a single filter clause: either an exact match or an inclusive range.
type Condition struct {
	key       string
	match     value.Value
	rangeExpr *Range
}

// NewMatch creates an exact match condition.
func NewMatch(key string, match value.Value) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match.IsNull() || match.String() == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates an inclusive range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() value.Value { return c.match }

// Range returns the range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.rangeExpr == nil }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is an inclusive range; either bound may be open (Null).
type Range struct {
	gte value.Value
	lte value.Value
}

// NewRangeFilter validates and creates a Range. At least one bound is required.
func NewRangeFilter(gte, lte value.Value) (Range, error) {
	if gte.IsNull() && lte.IsNull() {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	return Range{gte: gte, lte: lte}, nil
}

// GTE returns the lower inclusive bound (Null when open).
func (r Range) GTE() value.Value { return r.gte }

// LTE returns the upper inclusive bound (Null when open).
func (r Range) LTE() value.Value { return r.lte }
