package db

// FilterKind selects how a filter is rendered.
type FilterKind int

const (
	// FilterTag matches one exact tag value.
	FilterTag FilterKind = iota
	// FilterNumeric matches an inclusive numeric range.
	FilterNumeric
)

// Filter is a single AND-ed constraint on an index attribute.
type Filter struct {
	Field string
	Kind  FilterKind
	Tag   string
	Min   *float64 // nil = -inf
	Max   *float64 // nil = +inf
}

// Query is the input for FT.SEARCH. With no text and no filters it matches
// every document.
type Query struct {
	IndexName    string
	Text         string
	TextFields   []string
	Filters      []Filter
	Offset       int
	Limit        int
	SortBy       string
	SortDesc     bool
	WithScores   bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
