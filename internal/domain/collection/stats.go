package collection

// Health summarizes the engine-side state of a collection.
type Health string

// Health levels.
const (
	// HealthGreen means fully indexed with no failures.
	HealthGreen Health = "green"
	// HealthYellow means indexing is in progress or some documents failed to index.
	HealthYellow Health = "yellow"
	// HealthRed means the engine index is missing or unreadable.
	HealthRed Health = "red"
)

// Stats are engine-reported index statistics.
type Stats struct {
	NumDocs          int64   `json:"num_docs"`
	IndexingFailures int64   `json:"indexing_failures"`
	PercentIndexed   float64 `json:"percent_indexed"`
	Indexing         bool    `json:"indexing"`
	SizeMB           float64 `json:"size_mb"`
}

// Health grades the statistics.
func (s Stats) Health() Health {
	if s.Indexing || s.IndexingFailures > 0 {
		return HealthYellow
	}
	return HealthGreen
}
