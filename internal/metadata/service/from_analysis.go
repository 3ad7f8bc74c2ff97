package service

import (
	"github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"time"
)

// FromAnalysis derives grouping metadata from a full parse, for callers that
// already paid for one. timestamp is the wall clock start of the trace.
func FromAnalysis(analysis *parserModel.LogAnalysis, timestamp time.Time) model.DebugLogMetadata {
	entryType := parserModel.ClassifyEntryPoint(analysis.EntryPoint)
	metadata := model.DebugLogMetadata{
		LogName:        analysis.Name,
		UserId:         analysis.UserId,
		UserName:       analysis.UserName,
		Timestamp:      timestamp,
		EndTimestamp:   timestamp.Add(time.Duration(analysis.DurationMs * float64(time.Millisecond))),
		DurationMs:     analysis.DurationMs,
		Context:        entryType.Context(),
		EntryPoint:     analysis.EntryPoint,
		EntryPointType: entryType,
		CpuTimeMs:      analysis.CpuTimeMs,
		HasErrors:      analysis.TransactionFailed,
	}
	if final, ok := analysis.FinalLimits(); ok {
		metadata.SoqlQueries = final.SoqlQueries.Used
		metadata.DmlStatements = final.DmlStatements.Used
		metadata.QueryRows = final.QueryRows.Used
	}
	analysis.Root.Walk(func(node *parserModel.ExecutionNode) bool {
		if metadata.RecordId != "" {
			return false
		}
		if node.Kind == parserModel.KindCodeUnit {
			metadata.RecordId = findRecordId(parserModel.RawEvent{Fields: []string{node.Name}})
		}
		return true
	})
	return metadata
}
