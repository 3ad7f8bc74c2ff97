package model

import (
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"time"
)

// TraceSource is one raw trace handed to an import. LogDate anchors the
// trace's wall clock times on a calendar day and may be zero.
type TraceSource struct {
	Name    string    `json:"name"`
	Text    string    `json:"text"`
	LogDate time.Time `json:"log_date,omitempty"`
}

// ImportFailure records a trace that could not be imported. Its siblings are
// unaffected.
type ImportFailure struct {
	Name string
	Err  error
}

func (f ImportFailure) Error() string {
	return f.Name + ": " + f.Err.Error()
}

func (f ImportFailure) Unwrap() error {
	return f.Err
}

// ImportResult keeps input order. Analyses holds only traces that got a full
// parse, Metadata holds every trace that did not fail.
type ImportResult struct {
	Analyses []*parserModel.LogAnalysis
	Metadata []metadataModel.DebugLogMetadata
	Failures []ImportFailure
}
