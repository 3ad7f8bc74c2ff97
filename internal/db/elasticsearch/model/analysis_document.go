package model

import (
	groupingModel "github.com/Avi18971911/DebugLens/internal/grouping/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"time"
)

// AnalysisDocument is the searchable summary of one parsed trace as stored in
// the analysis index. The full execution tree is not persisted.
type AnalysisDocument struct {
	Id                  string                       `json:"_id"`
	Name                string                       `json:"name"`
	ParsedAt            time.Time                    `json:"parsed_at"`
	Summary             string                       `json:"summary"`
	UserId              string                       `json:"user_id,omitempty"`
	EntryPoint          string                       `json:"entry_point,omitempty"`
	DurationMs          float64                      `json:"duration_ms"`
	CpuTimeMs           float64                      `json:"cpu_time_ms"`
	SoqlQueries         int                          `json:"soql_queries"`
	DmlStatements       int                          `json:"dml_statements"`
	ErrorCount          int                          `json:"error_count"`
	DuplicateQueryCount int                          `json:"duplicate_query_count"`
	MaxDepth            int                          `json:"max_depth"`
	StackRisk           parserModel.StackRisk        `json:"stack_risk"`
	HealthScore         int                          `json:"health_score"`
	Grade               string                       `json:"grade"`
	IssueCodes          []string                     `json:"issue_codes"`
	TransactionFailed   bool                         `json:"transaction_failed"`
	IsLogTruncated      bool                         `json:"is_log_truncated"`
	IsAsyncExecution    bool                         `json:"is_async_execution"`
	IsTestExecution     bool                         `json:"is_test_execution"`
	Context             parserModel.ExecutionContext `json:"context"`
}

func NewAnalysisDocument(analysis *parserModel.LogAnalysis) AnalysisDocument {
	document := AnalysisDocument{
		Id:                  analysis.Id,
		Name:                analysis.Name,
		ParsedAt:            analysis.ParsedAt,
		Summary:             analysis.Summary,
		UserId:              analysis.UserId,
		EntryPoint:          analysis.EntryPoint,
		DurationMs:          analysis.DurationMs,
		CpuTimeMs:           analysis.CpuTimeMs,
		SoqlQueries:         analysis.OperationCount(parserModel.OperationSOQL),
		DmlStatements:       analysis.OperationCount(parserModel.OperationDML),
		ErrorCount:          len(analysis.Errors),
		DuplicateQueryCount: len(analysis.DuplicateQueries),
		MaxDepth:            analysis.StackAnalysis.MaxDepth,
		StackRisk:           analysis.StackAnalysis.Risk,
		HealthScore:         analysis.Health.Score,
		Grade:               analysis.Health.Grade,
		IssueCodes:          issueCodes(analysis.Health),
		TransactionFailed:   analysis.TransactionFailed,
		IsLogTruncated:      analysis.IsLogTruncated,
		IsAsyncExecution:    analysis.IsAsyncExecution,
		IsTestExecution:     analysis.IsTestExecution,
		Context:             parserModel.ClassifyEntryPoint(analysis.EntryPoint).Context(),
	}
	if final, ok := analysis.FinalLimits(); ok {
		document.SoqlQueries = final.SoqlQueries.Used
		document.DmlStatements = final.DmlStatements.Used
	}
	return document
}

func issueCodes(health parserModel.HealthScore) []string {
	codes := make([]string, 0, health.IssueCount())
	for _, bucket := range [][]parserModel.Issue{health.Critical, health.HighPriority, health.QuickWins} {
		for _, issue := range bucket {
			codes = append(codes, issue.Code)
		}
	}
	return codes
}

// GroupDocument is one reconstructed transaction as stored in the group index.
type GroupDocument struct {
	Id                 string                       `json:"_id"`
	UserId             string                       `json:"user_id,omitempty"`
	RecordId           string                       `json:"record_id,omitempty"`
	Start              time.Time                    `json:"start"`
	End                time.Time                    `json:"end"`
	DurationMs         float64                      `json:"duration_ms"`
	LogNames           []string                     `json:"log_names"`
	PhaseTypes         []groupingModel.PhaseType    `json:"phase_types"`
	SoqlQueries        int                          `json:"soql_queries"`
	DmlStatements      int                          `json:"dml_statements"`
	HasErrors          bool                         `json:"has_errors"`
	TotalReEntries     int                          `json:"total_re_entries"`
	MixedContext       bool                         `json:"mixed_context"`
	PrimaryContext     parserModel.ExecutionContext `json:"primary_context"`
	PotentialSavingsMs float64                      `json:"potential_savings_ms"`
	FrontendLoading    groupingModel.LoadingPattern `json:"frontend_loading,omitempty"`
	Recommendations    []string                     `json:"recommendations"`
}

func NewGroupDocument(group groupingModel.LogGroup) GroupDocument {
	logNames := make([]string, len(group.Members))
	for i, member := range group.Members {
		logNames[i] = member.LogName
	}
	phaseTypes := make([]groupingModel.PhaseType, len(group.Phases))
	for i, phase := range group.Phases {
		phaseTypes[i] = phase.Type
	}
	return GroupDocument{
		Id:                 group.Id,
		UserId:             group.UserId,
		RecordId:           group.RecordId,
		Start:              group.Start,
		End:                group.End,
		DurationMs:         group.DurationMs,
		LogNames:           logNames,
		PhaseTypes:         phaseTypes,
		SoqlQueries:        group.SoqlQueries,
		DmlStatements:      group.DmlStatements,
		HasErrors:          group.HasErrors,
		TotalReEntries:     group.TotalReEntries,
		MixedContext:       group.MixedContext,
		PrimaryContext:     group.PrimaryContext,
		PotentialSavingsMs: group.PotentialSavingsMs,
		FrontendLoading:    group.FrontendLoading,
		Recommendations:    group.Recommendations,
	}
}
