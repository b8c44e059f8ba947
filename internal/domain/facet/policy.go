package facet

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/facetdex/internal/domain/value"
)

// Defaults for Policy.
const (
	DefaultMaxCardinality = 1000
	DefaultMinValueLen    = 2
	DefaultMaxValueLen    = 80

	booleanShare      = 0.9
	keywordAvgLen     = 50.0
	keywordMaxSmall   = 20
	keywordDistinctOf = 0.5
)

var (
	hexRegex  = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	isoRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

	idHexLengths = map[int]bool{24: true, 32: true, 40: true, 64: true}
)

// Policy decides which values are tracked and how fields are typed.
type Policy struct {
	MaxCardinality int
	MinValueLen    int
	MaxValueLen    int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxCardinality: DefaultMaxCardinality,
		MinValueLen:    DefaultMinValueLen,
		MaxValueLen:    DefaultMaxValueLen,
	}
}

// Admit reports whether a rendered value is worth tracking: not a generated
// id, not a timestamp, and within the length bounds.
func (p Policy) Admit(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < p.MinValueLen || n > p.MaxValueLen {
		return false
	}
	if idHexLengths[len(s)] && hexRegex.MatchString(s) {
		return false
	}
	if uuidRegex.MatchString(s) {
		return false
	}
	if isoRegex.MatchString(s) {
		return false
	}
	return true
}

// Normalize renders v as a facet value for a field of type t.
// It returns false for values that are never tracked.
func (p Policy) Normalize(t Type, v value.Value) (string, bool) {
	switch v.Kind() {
	case value.Null, value.Date:
		return "", false
	}
	if t == TypeBoolean {
		b, err := value.ToBool(v)
		if err != nil {
			return "", false
		}
		return b.String(), true
	}
	s := strings.TrimSpace(v.String())
	if s == "" || !p.Admit(s) {
		return "", false
	}
	return s, true
}

// Infer classifies a field from a sample of its values: boolean when at least
// 90% look boolean, keyword when values are short and repeat, text otherwise.
func Infer(sample []value.Value) Type {
	var (
		n        int
		booleans int
		totalLen int
		distinct = make(map[string]struct{}, len(sample))
	)
	for _, v := range sample {
		if v.IsNull() {
			continue
		}
		n++
		if v.Kind() == value.Bool {
			booleans++
		} else {
			switch strings.ToLower(strings.TrimSpace(v.String())) {
			case "true", "false", "yes", "no":
				booleans++
			}
		}
		s := v.String()
		totalLen += utf8.RuneCountInString(s)
		distinct[s] = struct{}{}
	}
	if n == 0 {
		return TypeKeyword
	}
	if float64(booleans) >= booleanShare*float64(n) {
		return TypeBoolean
	}
	avg := float64(totalLen) / float64(n)
	d := len(distinct)
	if avg <= keywordAvgLen && (d <= keywordMaxSmall || float64(d) <= keywordDistinctOf*float64(n)) {
		return TypeKeyword
	}
	return TypeText
}
