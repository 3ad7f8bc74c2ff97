package model

const DefaultNamespace = "(default)"

type LimitUsage struct {
	Used int `json:"used"`
	Max  int `json:"max"`
}

// Percent returns Used as a percentage of Max, 0 when the ceiling is unknown.
func (u LimitUsage) Percent() float64 {
	if u.Max <= 0 {
		return 0
	}
	return float64(u.Used) * 100 / float64(u.Max)
}

// GovernorLimitSnapshot is one LIMIT_USAGE_FOR_NS block.
type GovernorLimitSnapshot struct {
	Namespace     string     `json:"namespace"`
	Nanos         int64      `json:"nanos"`
	LineNumber    int        `json:"line_number"`
	SoqlQueries   LimitUsage `json:"soql_queries"`
	SoslQueries   LimitUsage `json:"sosl_queries"`
	QueryRows     LimitUsage `json:"query_rows"`
	DmlStatements LimitUsage `json:"dml_statements"`
	DmlRows       LimitUsage `json:"dml_rows"`
	CpuTime       LimitUsage `json:"cpu_time"`
	HeapSize      LimitUsage `json:"heap_size"`
	Callouts      LimitUsage `json:"callouts"`
	FutureCalls   LimitUsage `json:"future_calls"`
	QueueableJobs LimitUsage `json:"queueable_jobs"`
}

func (s GovernorLimitSnapshot) IsDefaultNamespace() bool {
	return s.Namespace == DefaultNamespace
}

// NamedLimit pairs a counter with a display name for reporting.
type NamedLimit struct {
	Name  string     `json:"name"`
	Usage LimitUsage `json:"usage"`
}

func (s GovernorLimitSnapshot) Limits() []NamedLimit {
	return []NamedLimit{
		{Name: "SOQL queries", Usage: s.SoqlQueries},
		{Name: "SOSL queries", Usage: s.SoslQueries},
		{Name: "Query rows", Usage: s.QueryRows},
		{Name: "DML statements", Usage: s.DmlStatements},
		{Name: "DML rows", Usage: s.DmlRows},
		{Name: "CPU time", Usage: s.CpuTime},
		{Name: "Heap size", Usage: s.HeapSize},
		{Name: "Callouts", Usage: s.Callouts},
		{Name: "Future calls", Usage: s.FutureCalls},
		{Name: "Queueable jobs", Usage: s.QueueableJobs},
	}
}

// HiddenConsumption is governor usage the trace charges to the default
// namespace but never shows line by line, typically work done inside a
// managed package.
type HiddenConsumption struct {
	Soql int `json:"soql"`
	Sosl int `json:"sosl"`
	Dml  int `json:"dml"`
}

func (h HiddenConsumption) Any() bool {
	return h.Soql > 0 || h.Sosl > 0 || h.Dml > 0
}
