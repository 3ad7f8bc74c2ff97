package model

import "time"

const (
	SummaryEmptyLog     = "Empty log file"
	SummaryNoValidLines = "No valid log lines found"
)

// LogAnalysis is the complete result of parsing one trace. It is built once by
// the parser and must be treated as read-only afterwards.
type LogAnalysis struct {
	Id         string            `json:"id"`
	Name       string            `json:"name"`
	ParsedAt   time.Time         `json:"parsed_at"`
	Summary    string            `json:"summary"`
	APIVersion string            `json:"api_version,omitempty"`
	LogLevels  map[string]string `json:"log_levels,omitempty"`
	LineCount  int               `json:"line_count"`
	EventCount int               `json:"event_count"`
	UserId     string            `json:"user_id,omitempty"`
	UserName   string            `json:"user_name,omitempty"`
	EntryPoint string            `json:"entry_point,omitempty"`

	Root               *ExecutionNode      `json:"root"`
	DatabaseOperations []DatabaseOperation `json:"database_operations"`
	Callouts           []CalloutOperation  `json:"callouts"`
	Flows              []FlowExecution     `json:"flows"`

	LimitSnapshots     []GovernorLimitSnapshot `json:"limit_snapshots"`
	NamespaceSnapshots []GovernorLimitSnapshot `json:"namespace_snapshots"`
	TestLimitSnapshot  *GovernorLimitSnapshot  `json:"test_limit_snapshot,omitempty"`
	HiddenConsumption  HiddenConsumption       `json:"hidden_consumption"`

	Errors            []*ExecutionNode `json:"errors"`
	HandledExceptions []*ExecutionNode `json:"handled_exceptions"`

	TransactionFailed bool `json:"transaction_failed"`
	IsLogTruncated    bool `json:"is_log_truncated"`
	IsTestExecution   bool `json:"is_test_execution"`
	IsAsyncExecution  bool `json:"is_async_execution"`

	DurationMs float64 `json:"duration_ms"`
	CpuTimeMs  float64 `json:"cpu_time_ms"`

	MethodStats              []MethodStatistics `json:"method_stats"`
	StackAnalysis            StackDepthAnalysis `json:"stack_analysis"`
	DuplicateQueries         []DuplicateQuery   `json:"duplicate_queries"`
	RegularSoqlCount         int                `json:"regular_soql_count"`
	CustomMetadataQueryCount int                `json:"custom_metadata_query_count"`
	Timeline                 ExecutionTimeline  `json:"timeline"`
	Health                   HealthScore        `json:"health"`
}

// FinalLimits is the authoritative end-of-trace snapshot: the last one
// reported for the default namespace.
func (a *LogAnalysis) FinalLimits() (GovernorLimitSnapshot, bool) {
	if len(a.LimitSnapshots) == 0 {
		return GovernorLimitSnapshot{}, false
	}
	return a.LimitSnapshots[len(a.LimitSnapshots)-1], true
}

func (a *LogAnalysis) OperationCount(opType OperationType) int {
	count := 0
	for _, op := range a.DatabaseOperations {
		if op.Type == opType {
			count++
		}
	}
	return count
}

func (a *LogAnalysis) ErrorCallouts() []CalloutOperation {
	var failed []CalloutOperation
	for _, c := range a.Callouts {
		if c.IsError {
			failed = append(failed, c)
		}
	}
	return failed
}
