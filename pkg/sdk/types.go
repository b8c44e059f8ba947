package facetdex

import "time"

// FieldType is the declared type of a collection field.
type FieldType string

// Field type constants.
const (
	FieldText    FieldType = "text"
	FieldKeyword FieldType = "keyword"
	FieldInteger FieldType = "integer"
	FieldLong    FieldType = "long"
	FieldFloat   FieldType = "float"
	FieldDouble  FieldType = "double"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

// Field is one schema entry.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// CollectionStats are engine-reported index statistics.
type CollectionStats struct {
	NumDocs          int64   `json:"num_docs"`
	IndexingFailures int64   `json:"indexing_failures"`
	PercentIndexed   float64 `json:"percent_indexed"`
	Indexing         bool    `json:"indexing"`
	SizeMB           float64 `json:"size_mb"`
}

// CollectionInfo describes a collection: schema, metadata and health
// ("green", "yellow" or "red"). Stats is nil when the engine has no index.
type CollectionInfo struct {
	Name        string           `json:"name"`
	Fields      []Field          `json:"fields"`
	Revision    int              `json:"revision"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Creator     string           `json:"creator,omitempty"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	Health      string           `json:"health"`
	Stats       *CollectionStats `json:"stats,omitempty"`
}

// Document is a record. Fields decode as JSON scalars: string, bool,
// json.Number or nil.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ListResult is a page of documents.
type ListResult struct {
	Documents  []Document
	NextCursor string
}

// FacetValue is one row of a facet table.
type FacetValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FacetTable is the value/count table of one field.
type FacetTable struct {
	Field     string       `json:"field"`
	Type      string       `json:"type"`
	Truncated bool         `json:"truncated"`
	Distinct  int          `json:"distinct"`
	Values    []FacetValue `json:"values"`
}

// SearchHit is a single search result.
type SearchHit struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Fields     map[string]any      `json:"fields"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Hits     []SearchHit `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// Import job states.
const (
	ImportRunning             = "running"
	ImportCompleted           = "completed"
	ImportCompletedWithErrors = "completed_with_errors"
	ImportFailed              = "failed"
	ImportCancelled           = "cancelled"
)

// Import event types.
const (
	EventProgress = "progress"
	EventError    = "error"
	EventDone     = "done"
)

// ImportFailure is one rejected record.
type ImportFailure struct {
	Record int64  `json:"record"`
	ID     string `json:"id,omitempty"`
	Batch  int    `json:"batch"`
	Reason string `json:"reason"`
}

// ImportProgress is the state of an import after a batch. The final one
// is the job summary.
type ImportProgress struct {
	JobID             string           `json:"job_id"`
	Collection        string           `json:"collection"`
	BatchIndex        int              `json:"batch_index"`
	State             string           `json:"state"`
	Processed         int64            `json:"processed"`
	Succeeded         int64            `json:"succeeded"`
	Failed            int64            `json:"failed"`
	Total             int64            `json:"total,omitempty"`
	TotalKnown        bool             `json:"total_known"`
	Message           string           `json:"message,omitempty"`
	FacetFields       []string         `json:"facet_fields,omitempty"`
	Failures          []ImportFailure  `json:"failures,omitempty"`
	FailureSummary    map[string]int64 `json:"failure_summary,omitempty"`
	FailuresTruncated bool             `json:"failures_truncated,omitempty"`
	ElapsedMS         int64            `json:"elapsed_ms,omitempty"`
}

// ImportEvent is one frame of the progress stream.
type ImportEvent struct {
	Type     string
	Progress ImportProgress
}
