package importjob

import (
	"maps"
	"regexp"
)

// DefaultMaxFailureDetails caps the per-record failure list.
const DefaultMaxFailureDetails = 100

var (
	quoted = regexp.MustCompile(`"[^"]*"`)
	digits = regexp.MustCompile(`\d+`)
)

// FailureLog keeps the first failures verbatim and counts every failure by
// reason. It is not safe for concurrent use.
type FailureLog struct {
	max     int
	details []Failure
	counts  map[string]int64
	total   int64
}

// NewFailureLog creates a log keeping at most max detailed entries.
func NewFailureLog(maxDetails int) *FailureLog {
	if maxDetails <= 0 {
		maxDetails = DefaultMaxFailureDetails
	}
	return &FailureLog{max: maxDetails, counts: make(map[string]int64)}
}

// Add records one failure.
func (l *FailureLog) Add(f Failure) {
	l.total++
	l.counts[ReasonKey(f.Reason)]++
	if len(l.details) < l.max {
		l.details = append(l.details, f)
	}
}

// Total returns the number of recorded failures.
func (l *FailureLog) Total() int64 { return l.total }

// Details returns the retained failures in arrival order.
func (l *FailureLog) Details() []Failure { return l.details }

// Summary returns failure counts per normalized reason.
func (l *FailureLog) Summary() map[string]int64 { return maps.Clone(l.counts) }

// Truncated reports whether some failures are only present in the summary.
func (l *FailureLog) Truncated() bool { return l.total > int64(len(l.details)) }

// ReasonKey collapses quoted values and digits so reasons differing only by
// the offending value or record number group together.
func ReasonKey(reason string) string {
	return digits.ReplaceAllString(quoted.ReplaceAllString(reason, "?"), "N")
}
