package model

type DuplicateQuery struct {
	NormalizedQuery string  `json:"normalized_query"`
	ExampleQuery    string  `json:"example_query"`
	ObjectType      string  `json:"object_type,omitempty"`
	ExecutionCount  int     `json:"execution_count"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	TotalRows       int     `json:"total_rows"`
}

type StackRisk string

const (
	StackRiskSafe     StackRisk = "Safe"
	StackRiskModerate StackRisk = "Moderate"
	StackRiskWarning  StackRisk = "Warning"
	StackRiskCritical StackRisk = "Critical"
)

type LoopPattern struct {
	Method                 string `json:"method"`
	CallCount              int    `json:"call_count"`
	Depth                  int    `json:"depth"`
	EstimatedFramesPerCall int    `json:"estimated_frames_per_call"`
}

type StackDepthAnalysis struct {
	MaxDepth        int           `json:"max_depth"`
	MaxDepthLine    int           `json:"max_depth_line"`
	MaxDepthMethod  string        `json:"max_depth_method"`
	EstimatedFrames int           `json:"estimated_frames"`
	Risk            StackRisk     `json:"risk"`
	LoopPatterns    []LoopPattern `json:"loop_patterns,omitempty"`
}

type MethodStatistics struct {
	Name            string  `json:"name"`
	CallCount       int     `json:"call_count"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	MaxDurationMs   float64 `json:"max_duration_ms"`
	SelfTimeMs      float64 `json:"self_time_ms"`
}

type PhaseType string

const (
	PhaseTrigger    PhaseType = "Trigger"
	PhaseFlow       PhaseType = "Flow"
	PhaseValidation PhaseType = "Validation"
	PhaseDML        PhaseType = "DML"
	PhaseCodeUnit   PhaseType = "CodeUnit"
)

type TimelinePhase struct {
	Name        string    `json:"name"`
	Type        PhaseType `json:"type"`
	StartNanos  int64     `json:"start_nanos"`
	EndNanos    int64     `json:"end_nanos"`
	DurationMs  float64   `json:"duration_ms"`
	Depth       int       `json:"depth"`
	IsRecursive bool      `json:"is_recursive"`
	Line        int       `json:"line"`
}

type ExecutionTimeline struct {
	Phases         []TimelinePhase `json:"phases"`
	RecursionCount int             `json:"recursion_count"`
	RecursiveUnits []string        `json:"recursive_units,omitempty"`
}
