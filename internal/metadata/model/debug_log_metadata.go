package model

import (
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"time"
)

// DebugLogMetadata is the cheap summary of one trace used for grouping.
// Counters come from the final limit usage section only.
type DebugLogMetadata struct {
	LogName        string                       `json:"log_name"`
	UserId         string                       `json:"user_id,omitempty"`
	UserName       string                       `json:"user_name,omitempty"`
	Timestamp      time.Time                    `json:"timestamp"`
	EndTimestamp   time.Time                    `json:"end_timestamp"`
	DurationMs     float64                      `json:"duration_ms"`
	RecordId       string                       `json:"record_id,omitempty"`
	Context        parserModel.ExecutionContext `json:"context"`
	EntryPoint     string                       `json:"entry_point,omitempty"`
	EntryPointType parserModel.EntryPointType   `json:"entry_point_type"`
	SoqlQueries    int                          `json:"soql_queries"`
	DmlStatements  int                          `json:"dml_statements"`
	QueryRows      int                          `json:"query_rows"`
	CpuTimeMs      float64                      `json:"cpu_time_ms"`
	HasErrors      bool                         `json:"has_errors"`
	PartialRead    bool                         `json:"partial_read"`
}

// Window is the span of time the trace covers. A trace with no measured
// duration covers a single instant.
func (m DebugLogMetadata) Window() (time.Time, time.Time) {
	end := m.EndTimestamp
	if end.Before(m.Timestamp) {
		end = m.Timestamp
	}
	return m.Timestamp, end
}
