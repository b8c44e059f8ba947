// Package importjob models the ephemeral state of one ingestion run.
package importjob

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of an import.
type State string

// Import states. Everything except StateRunning is terminal.
const (
	StateRunning             State = "running"
	StateCompleted           State = "completed"
	StateCompletedWithErrors State = "completed_with_errors"
	StateFailed              State = "failed"
	StateCancelled           State = "cancelled"
)

// Terminal reports whether no further events follow.
func (s State) Terminal() bool { return s != StateRunning && s != "" }

// Format is an upload file format.
type Format string

// Supported formats.
const (
	FormatNDJSON  Format = "ndjson"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

var formatAliases = map[string]Format{
	"ndjson":  FormatNDJSON,
	"jsonl":   FormatNDJSON,
	"json":    FormatJSON,
	"csv":     FormatCSV,
	"xlsx":    FormatXLSX,
	"parquet": FormatParquet,
}

// ParseFormat resolves a format name or file extension (with or without dot).
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("format %q", s)
}

// EventType is the kind of a progress frame.
type EventType string

// Progress frame kinds.
const (
	EventProgress EventType = "progress"
	EventError    EventType = "error"
	EventDone     EventType = "done"
)

// Counters are the running tallies carried by every event.
type Counters struct {
	Processed  int64 `json:"processed"`
	Succeeded  int64 `json:"succeeded"`
	Failed     int64 `json:"failed"`
	Total      int64 `json:"total,omitempty"`
	TotalKnown bool  `json:"total_known"`
}

// Failure is one rejected record.
type Failure struct {
	Record int64  `json:"record"`
	ID     string `json:"id,omitempty"`
	Batch  int    `json:"batch"`
	Reason string `json:"reason"`
}

// Data is the payload of a progress frame.
type Data struct {
	JobID      string `json:"job_id"`
	Collection string `json:"collection"`
	BatchIndex int    `json:"batch_index"`
	State      State  `json:"state"`
	Counters
	Message           string           `json:"message,omitempty"`
	FacetFields       []string         `json:"facet_fields,omitempty"`
	Failures          []Failure        `json:"failures,omitempty"`
	FailureSummary    map[string]int64 `json:"failure_summary,omitempty"`
	FailuresTruncated bool             `json:"failures_truncated,omitempty"`
	ElapsedMS         int64            `json:"elapsed_ms,omitempty"`
}

// Event is one frame of the progress stream.
type Event struct {
	Type EventType `json:"event"`
	Data Data      `json:"data"`
}
