package model

type OperationType string

const (
	OperationSOQL OperationType = "SOQL"
	OperationSOSL OperationType = "SOSL"
	OperationDML  OperationType = "DML"
)

// DatabaseOperation is only created once both the begin and the end line of a
// query or DML statement have been seen.
type DatabaseOperation struct {
	Type          OperationType `json:"type"`
	Query         string        `json:"query,omitempty"`
	DMLVerb       string        `json:"dml_verb,omitempty"`
	ObjectType    string        `json:"object_type,omitempty"`
	RowsAffected  int           `json:"rows_affected"`
	DurationMs    float64       `json:"duration_ms"`
	ExecutionPlan string        `json:"execution_plan,omitempty"`
	RelativeCost  float64       `json:"relative_cost,omitempty"`
	StartNanos    int64         `json:"start_nanos"`
	LineNumber    int           `json:"line_number"`
}

type CalloutOperation struct {
	Endpoint   string  `json:"endpoint"`
	Method     string  `json:"method"`
	StatusCode int     `json:"status_code"`
	Status     string  `json:"status,omitempty"`
	DurationMs float64 `json:"duration_ms"`
	IsError    bool    `json:"is_error"`
	StartNanos int64   `json:"start_nanos"`
	LineNumber int     `json:"line_number"`
}

type FlowExecution struct {
	InterviewId  string  `json:"interview_id"`
	FlowName     string  `json:"flow_name"`
	DurationMs   float64 `json:"duration_ms"`
	Faulted      bool    `json:"faulted"`
	FaultMessage string  `json:"fault_message,omitempty"`
	StartNanos   int64   `json:"start_nanos"`
	LineNumber   int     `json:"line_number"`
}
