package service

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/parser/classifier"
	"github.com/Avi18971911/DebugLens/internal/parser/detector"
	"github.com/Avi18971911/DebugLens/internal/parser/health"
	"github.com/Avi18971911/DebugLens/internal/parser/ledger"
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/Avi18971911/DebugLens/internal/parser/tree"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"strings"
	"time"
)

type Options struct {
	Tree       tree.Options
	Exceptions detector.ExceptionPolicy
	StackDepth detector.StackDepthOptions
	Health     health.Thresholds
}

func DefaultOptions() Options {
	return Options{
		Tree:       tree.DefaultOptions(),
		Exceptions: detector.DefaultExceptionPolicy(),
		StackDepth: detector.DefaultStackDepthOptions(),
		Health:     health.DefaultThresholds(),
	}
}

type LogParserService interface {
	// Parse never fails: empty, malformed and truncated traces produce an
	// analysis whose Summary and flags describe what was wrong.
	Parse(text string, name string) *model.LogAnalysis
}

type LogParserServiceImpl struct {
	opts   Options
	logger *zap.Logger
}

func NewLogParserService(opts Options, logger *zap.Logger) LogParserService {
	return &LogParserServiceImpl{
		opts:   opts,
		logger: logger,
	}
}

func (lps *LogParserServiceImpl) Parse(text string, name string) *model.LogAnalysis {
	analysis := newAnalysis(name)
	stream := classifier.NewEventStream(text)
	builder := tree.NewBuilder(name, lps.opts.Tree)
	limits := ledger.NewLedger()
	for event := range stream.Events() {
		builder.Consume(event)
		limits.Consume(event)
	}

	stats := stream.Stats()
	analysis.LineCount = stats.LineCount
	analysis.EventCount = stats.EventCount
	if !stats.HasContent {
		analysis.Summary = model.SummaryEmptyLog
		return analysis
	}
	if stats.EventCount-stats.UnrecognizedEvents == 0 {
		lps.logger.Debug(
			"No recognizable events in log",
			zap.String("log_name", name),
			zap.Int("skipped_lines", stats.SkippedLines),
		)
		analysis.Summary = model.SummaryNoValidLines
		return analysis
	}

	header := stream.Header()
	analysis.APIVersion = header.APIVersion
	analysis.LogLevels = header.LogLevels

	built := builder.Finish()
	ledgerResult := limits.Result()
	lps.populate(analysis, built, ledgerResult)

	if analysis.IsLogTruncated {
		lps.logger.Debug(
			"Log is truncated",
			zap.String("log_name", name),
			zap.Int("open_nodes", built.OpenNodes),
			zap.Bool("finish_seen", built.FinishSeen),
			zap.Int("ledger_sections", ledgerResult.SectionCount),
		)
	}
	if stats.UnrecognizedEvents > 0 {
		lps.logger.Debug(
			"Skipped unrecognized events",
			zap.String("log_name", name),
			zap.Int("count", stats.UnrecognizedEvents),
		)
	}
	return analysis
}

func (lps *LogParserServiceImpl) populate(
	analysis *model.LogAnalysis,
	built tree.Result,
	limits ledger.Result,
) {
	analysis.Root = built.Root
	analysis.UserId = built.UserId
	analysis.UserName = built.UserName
	analysis.EntryPoint = built.EntryPoint
	analysis.DatabaseOperations = nonNil(built.DatabaseOperations)
	analysis.Callouts = nonNil(built.Callouts)
	analysis.Flows = nonNil(built.Flows)
	analysis.LimitSnapshots = nonNil(limits.Defaults)
	analysis.NamespaceSnapshots = nonNil(limits.Namespaces)
	analysis.TestLimitSnapshot = limits.Testing
	analysis.DurationMs = built.DurationMs

	exceptions := detector.ClassifyExceptions(built.Exceptions, lps.opts.Exceptions)
	analysis.Errors = exceptions.Errors
	analysis.HandledExceptions = exceptions.HandledExceptions
	analysis.TransactionFailed = exceptions.TransactionFailed

	final, hasFinal := analysis.FinalLimits()
	analysis.IsLogTruncated = built.OpenNodes > 0 || (built.StartSeen && !built.FinishSeen) || !hasFinal
	if hasFinal {
		analysis.HiddenConsumption = ledger.ComputeHiddenConsumption(final, analysis.DatabaseOperations)
		analysis.CpuTimeMs = float64(final.CpuTime.Used)
	}

	entryType := model.ClassifyEntryPoint(built.EntryPoint)
	analysis.IsTestExecution = limits.Testing != nil || entryType == model.EntryTest
	analysis.IsAsyncExecution = entryType.IsAsync()

	analysis.RegularSoqlCount, analysis.CustomMetadataQueryCount = ledger.SplitCustomMetadata(analysis.DatabaseOperations)
	analysis.DuplicateQueries = detector.DetectDuplicateQueries(analysis.DatabaseOperations)
	analysis.StackAnalysis = detector.AnalyzeStackDepth(built.Root, built.Depth, lps.opts.StackDepth)
	analysis.MethodStats = detector.CollectMethodStats(built.Root)
	analysis.Timeline = detector.BuildTimeline(built.Root)
	analysis.Health = health.Score(analysis, lps.opts.Health)
	analysis.Summary = summarize(analysis)
}

func newAnalysis(name string) *model.LogAnalysis {
	return &model.LogAnalysis{
		Id:                 uuid.NewString(),
		Name:               name,
		ParsedAt:           time.Now().UTC(),
		Root:               model.NewExecutionNode(name, model.KindTransaction, 0, 0),
		DatabaseOperations: []model.DatabaseOperation{},
		Callouts:           []model.CalloutOperation{},
		Flows:              []model.FlowExecution{},
		LimitSnapshots:     []model.GovernorLimitSnapshot{},
		NamespaceSnapshots: []model.GovernorLimitSnapshot{},
		Errors:             []*model.ExecutionNode{},
		HandledExceptions:  []*model.ExecutionNode{},
		MethodStats:        []model.MethodStatistics{},
		DuplicateQueries:   []model.DuplicateQuery{},
		StackAnalysis:      model.StackDepthAnalysis{Risk: model.StackRiskSafe},
		Timeline:           model.ExecutionTimeline{Phases: []model.TimelinePhase{}},
		Health:             health.Summarize(nil, health.DefaultThresholds()),
	}
}

func summarize(analysis *model.LogAnalysis) string {
	parts := []string{
		fmt.Sprintf("%.1f ms", analysis.DurationMs),
		fmt.Sprintf("%d SOQL", analysis.OperationCount(model.OperationSOQL)),
		fmt.Sprintf("%d DML", analysis.OperationCount(model.OperationDML)),
	}
	if len(analysis.Callouts) > 0 {
		parts = append(parts, fmt.Sprintf("%d callouts", len(analysis.Callouts)))
	}
	if analysis.TransactionFailed {
		parts = append(parts, fmt.Sprintf("failed with %d error(s)", len(analysis.Errors)))
	}
	if analysis.IsLogTruncated {
		parts = append(parts, "truncated")
	}
	return fmt.Sprintf("%s: %s (grade %s)", entryOrName(analysis), strings.Join(parts, ", "), analysis.Health.Grade)
}

func entryOrName(analysis *model.LogAnalysis) string {
	if analysis.EntryPoint != "" {
		return analysis.EntryPoint
	}
	return analysis.Name
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
