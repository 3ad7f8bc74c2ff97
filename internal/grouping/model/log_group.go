package model

import (
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"time"
)

type PhaseType string

const (
	PhaseBackend  PhaseType = "Backend"
	PhaseFrontend PhaseType = "Frontend"
	PhaseAsync    PhaseType = "Async"
)

type LoadingPattern string

const (
	LoadingNone       LoadingPattern = ""
	LoadingSequential LoadingPattern = "Sequential"
	LoadingParallel   LoadingPattern = "Parallel"
)

type LogPhase struct {
	Type          PhaseType `json:"type"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationMs    float64   `json:"duration_ms"`
	GapToNextMs   float64   `json:"gap_to_next_ms"`
	LogNames      []string  `json:"log_names"`
	SoqlQueries   int       `json:"soql_queries"`
	DmlStatements int       `json:"dml_statements"`
	CpuTimeMs     float64   `json:"cpu_time_ms"`
}

// LogGroup is one user transaction reconstructed from several traces.
type LogGroup struct {
	Id                 string                           `json:"id"`
	UserId             string                           `json:"user_id,omitempty"`
	UserName           string                           `json:"user_name,omitempty"`
	RecordId           string                           `json:"record_id,omitempty"`
	Start              time.Time                        `json:"start"`
	End                time.Time                        `json:"end"`
	DurationMs         float64                          `json:"duration_ms"`
	Members            []metadataModel.DebugLogMetadata `json:"members"`
	Phases             []LogPhase                       `json:"phases"`
	SoqlQueries        int                              `json:"soql_queries"`
	DmlStatements      int                              `json:"dml_statements"`
	CpuTimeMs          float64                          `json:"cpu_time_ms"`
	HasErrors          bool                             `json:"has_errors"`
	FrontendLoading    LoadingPattern                   `json:"frontend_loading,omitempty"`
	PotentialSavingsMs float64                          `json:"potential_savings_ms"`
	ReEntries          map[string]int                   `json:"re_entries"`
	TotalReEntries     int                              `json:"total_re_entries"`
	Contexts           []parserModel.ExecutionContext   `json:"contexts"`
	PrimaryContext     parserModel.ExecutionContext     `json:"primary_context"`
	MixedContext       bool                             `json:"mixed_context"`
	Recommendations    []string                         `json:"recommendations"`
}

func (g LogGroup) HasRecursion() bool {
	return g.TotalReEntries > 0
}

// Interaction is everything captured during one user session.
type Interaction struct {
	Id       string                           `json:"id"`
	Start    time.Time                        `json:"start"`
	End      time.Time                        `json:"end"`
	Analyses []*parserModel.LogAnalysis       `json:"analyses,omitempty"`
	Metadata []metadataModel.DebugLogMetadata `json:"metadata"`
	Groups   []LogGroup                       `json:"groups"`
}
