package health

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"sort"
	"strings"
)

const startingScore = 100

var penalties = map[model.IssueSeverity]int{
	model.IssueCritical: 20,
	model.IssueHigh:     10,
	model.IssueMedium:   5,
	model.IssueLow:      2,
}

type Thresholds struct {
	LimitCriticalPercent float64 `yaml:"limit_critical_percent"`
	LimitHighPercent     float64 `yaml:"limit_high_percent"`
	HeavyDuplicateCount  int     `yaml:"heavy_duplicate_count"`
	SlowTransactionMs    float64 `yaml:"slow_transaction_ms"`
	DebugStatementLimit  int     `yaml:"debug_statement_limit"`
	// QuickWinMaxMinutes is the longest fix a medium or low issue may need to
	// count as a quick win. Admin-fixable issues always qualify.
	QuickWinMaxMinutes   int     `yaml:"quick_win_max_minutes"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LimitCriticalPercent: 90,
		LimitHighPercent:     70,
		HeavyDuplicateCount:  5,
		SlowTransactionMs:    10_000,
		DebugStatementLimit:  20,
		QuickWinMaxMinutes:   30,
	}
}

type rule func(analysis *model.LogAnalysis, thresholds Thresholds) []model.Issue

var rules = []rule{
	transactionFailedRule,
	governorLimitRule,
	duplicateQueryRule,
	stackDepthRule,
	calloutErrorRule,
	hiddenConsumptionRule,
	flowFaultRule,
	validationFailureRule,
	recursionRule,
	slowTransactionRule,
	debugStatementRule,
}

// Score runs every rule over a finished analysis. The analysis must already
// carry its detector results; Health itself is not read.
func Score(analysis *model.LogAnalysis, thresholds Thresholds) model.HealthScore {
	var issues []model.Issue
	for _, r := range rules {
		issues = append(issues, r(analysis, thresholds)...)
	}
	return Summarize(issues, thresholds)
}

// Summarize buckets issues and derives the score and grade from them.
// Medium and low issues that are neither admin fixable nor quick to fix
// land in HighPriority.
func Summarize(issues []model.Issue, thresholds Thresholds) model.HealthScore {
	sorted := make([]model.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ImpactValue > sorted[j].ImpactValue
	})

	score := model.HealthScore{
		Critical:     []model.Issue{},
		HighPriority: []model.Issue{},
		QuickWins:    []model.Issue{},
	}
	points := startingScore
	for _, issue := range sorted {
		points -= penalties[issue.Severity]
		switch {
		case issue.Severity == model.IssueCritical:
			score.Critical = append(score.Critical, issue)
		case issue.Severity == model.IssueHigh:
			score.HighPriority = append(score.HighPriority, issue)
		case isQuickWin(issue, thresholds):
			score.QuickWins = append(score.QuickWins, issue)
		default:
			score.HighPriority = append(score.HighPriority, issue)
		}
	}
	score.Score = max(0, min(startingScore, points))
	score.Grade = Grade(score.Score)
	return score
}

func isQuickWin(issue model.Issue, thresholds Thresholds) bool {
	return issue.AdminFixable || issue.FixTimeMinutes <= thresholds.QuickWinMaxMinutes
}

func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func transactionFailedRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	if !analysis.TransactionFailed || len(analysis.Errors) == 0 {
		return nil
	}
	first := analysis.Errors[0]
	return []model.Issue{{
		Code:            "transaction_failed",
		Severity:        model.IssueCritical,
		Problem:         fmt.Sprintf("Transaction failed with %d unhandled exception(s), first: %s", len(analysis.Errors), first.Name),
		Impact:          "Every change made in the transaction was rolled back",
		ImpactValue:     float64(len(analysis.Errors)),
		Fix:             fmt.Sprintf("Fix the cause of %s or catch it where the caller can recover", first.Name),
		FixTimeMinutes:  60,
		Priority:        1,
		RequiresCodeFix: true,
	}}
}

var limitFixes = map[string]string{
	"SOQL queries":   "Move queries out of loops and query related records in bulk",
	"Query rows":     "Add selective filters or LIMIT clauses to large queries",
	"DML statements": "Collect records into lists and perform one DML per object type",
	"DML rows":       "Move large updates to Batch Apex",
	"CPU time":       "Profile the slowest methods and move heavy work to async processing",
	"Heap size":      "Process records in smaller chunks and release large collections early",
	"Callouts":       "Combine callouts or move them to a Queueable",
}

func governorLimitRule(analysis *model.LogAnalysis, thresholds Thresholds) []model.Issue {
	final, ok := analysis.FinalLimits()
	if !ok {
		return nil
	}
	var issues []model.Issue
	for _, limit := range final.Limits() {
		percent := limit.Usage.Percent()
		severity, priority := model.IssueSeverity(""), 0
		switch {
		case percent >= thresholds.LimitCriticalPercent:
			severity, priority = model.IssueCritical, 1
		case percent >= thresholds.LimitHighPercent:
			severity, priority = model.IssueHigh, 2
		default:
			continue
		}
		fix, found := limitFixes[limit.Name]
		if !found {
			fix = "Reduce usage of " + strings.ToLower(limit.Name)
		}
		issues = append(issues, model.Issue{
			Code:     "governor_limit",
			Severity: severity,
			Problem: fmt.Sprintf(
				"%s at %.0f%% of the limit (%d of %d)", limit.Name, percent, limit.Usage.Used, limit.Usage.Max,
			),
			Impact:          "The transaction fails outright once the limit is reached",
			ImpactValue:     percent,
			Fix:             fix,
			FixTimeMinutes:  45,
			Priority:        priority,
			RequiresCodeFix: true,
		})
	}
	return issues
}

func duplicateQueryRule(analysis *model.LogAnalysis, thresholds Thresholds) []model.Issue {
	var issues []model.Issue
	for _, duplicate := range analysis.DuplicateQueries {
		severity, priority := model.IssueMedium, 3
		if duplicate.ExecutionCount >= thresholds.HeavyDuplicateCount {
			severity, priority = model.IssueHigh, 2
		}
		issues = append(issues, model.Issue{
			Code:     "duplicate_query",
			Severity: severity,
			Problem: fmt.Sprintf(
				"Query executed %d times with different binds: %s", duplicate.ExecutionCount, duplicate.ExampleQuery,
			),
			Impact: fmt.Sprintf(
				"%d extra SOQL queries, %.1f ms total", duplicate.ExecutionCount-1, duplicate.TotalDurationMs,
			),
			ImpactValue:     float64(duplicate.ExecutionCount),
			Fix:             "Query once outside the loop and look results up from a map",
			FixTimeMinutes:  30,
			Priority:        priority,
			RequiresCodeFix: true,
		})
	}
	return issues
}

func stackDepthRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	stack := analysis.StackAnalysis
	severity, priority := model.IssueSeverity(""), 0
	switch stack.Risk {
	case model.StackRiskCritical:
		severity, priority = model.IssueCritical, 1
	case model.StackRiskWarning:
		severity, priority = model.IssueHigh, 2
	case model.StackRiskModerate:
		severity, priority = model.IssueMedium, 4
	default:
		return nil
	}
	return []model.Issue{{
		Code:     "stack_depth",
		Severity: severity,
		Problem: fmt.Sprintf(
			"Call stack reached depth %d (about %d frames) in %s", stack.MaxDepth, stack.EstimatedFrames, stack.MaxDepthMethod,
		),
		Impact:          "Deep stacks end in System.LimitException: Maximum stack depth reached",
		ImpactValue:     float64(stack.EstimatedFrames),
		Fix:             "Replace recursion with iteration or split the work across transactions",
		FixTimeMinutes:  90,
		Priority:        priority,
		RequiresCodeFix: true,
	}}
}

func calloutErrorRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	failed := analysis.ErrorCallouts()
	if len(failed) == 0 {
		return nil
	}
	return []model.Issue{{
		Code:     "callout_error",
		Severity: model.IssueHigh,
		Problem: fmt.Sprintf(
			"%d callout(s) returned an error status, first: %d from %s", len(failed), failed[0].StatusCode, failed[0].Endpoint,
		),
		Impact:          "Integration data may be missing or stale",
		ImpactValue:     float64(len(failed)),
		Fix:             "Check the endpoint and credentials and handle error responses explicitly",
		FixTimeMinutes:  30,
		Priority:        2,
		RequiresCodeFix: true,
	}}
}

func hiddenConsumptionRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	hidden := analysis.HiddenConsumption
	if !hidden.Any() {
		return nil
	}
	return []model.Issue{{
		Code:     "hidden_consumption",
		Severity: model.IssueMedium,
		Problem: fmt.Sprintf(
			"Managed packages used %d SOQL, %d SOSL and %d DML not shown in the log", hidden.Soql, hidden.Sosl, hidden.Dml,
		),
		Impact:         "Package work counts against the same governor limits as your code",
		ImpactValue:    float64(hidden.Soql + hidden.Sosl + hidden.Dml),
		Fix:            "Review package settings and disable package automation this process does not need",
		FixTimeMinutes: 20,
		Priority:       3,
		AdminFixable:   true,
	}}
}

func flowFaultRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	var issues []model.Issue
	for _, flow := range analysis.Flows {
		if !flow.Faulted {
			continue
		}
		issues = append(issues, model.Issue{
			Code:           "flow_fault",
			Severity:       model.IssueHigh,
			Problem:        fmt.Sprintf("Flow %s hit a fault: %s", flow.FlowName, flow.FaultMessage),
			Impact:         "The flow stopped before finishing its updates",
			ImpactValue:    flow.DurationMs,
			Fix:            "Add a fault path to the failing element and fix its input data",
			FixTimeMinutes: 20,
			Priority:       2,
			AdminFixable:   true,
		})
	}
	return issues
}

func validationFailureRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	var failed []string
	analysis.Root.Walk(func(node *model.ExecutionNode) bool {
		if node.Kind == model.KindValidation && node.Metadata["result"] == "fail" {
			failed = append(failed, node.Name)
		}
		return true
	})
	if len(failed) == 0 {
		return nil
	}
	return []model.Issue{{
		Code:           "validation_failure",
		Severity:       model.IssueLow,
		Problem:        fmt.Sprintf("%d validation rule(s) failed: %s", len(failed), strings.Join(failed, ", ")),
		Impact:         "The user saw a validation error and the save was blocked",
		ImpactValue:    float64(len(failed)),
		Fix:            "Check the rule criteria or make the required fields clearer on the page layout",
		FixTimeMinutes: 10,
		Priority:       4,
		AdminFixable:   true,
	}}
}

func recursionRule(analysis *model.LogAnalysis, _ Thresholds) []model.Issue {
	timeline := analysis.Timeline
	if timeline.RecursionCount == 0 {
		return nil
	}
	return []model.Issue{{
		Code:     "recursion",
		Severity: model.IssueHigh,
		Problem: fmt.Sprintf(
			"Automation re-entered itself %d time(s): %s", timeline.RecursionCount, strings.Join(timeline.RecursiveUnits, ", "),
		),
		Impact:          "Each re-entry repeats queries and DML against the same governor limits",
		ImpactValue:     float64(timeline.RecursionCount),
		Fix:             "Add a static recursion guard or only act on records whose fields changed",
		FixTimeMinutes:  30,
		Priority:        2,
		RequiresCodeFix: true,
	}}
}

func slowTransactionRule(analysis *model.LogAnalysis, thresholds Thresholds) []model.Issue {
	if analysis.DurationMs <= thresholds.SlowTransactionMs {
		return nil
	}
	slowest := "unknown"
	if len(analysis.MethodStats) > 0 {
		slowest = analysis.MethodStats[0].Name
	}
	return []model.Issue{{
		Code:            "slow_transaction",
		Severity:        model.IssueMedium,
		Problem:         fmt.Sprintf("Transaction took %.0f ms, slowest method %s", analysis.DurationMs, slowest),
		Impact:          "Users wait for the save to complete",
		ImpactValue:     analysis.DurationMs,
		Fix:             "Optimize the slowest methods or move non-essential work to async processing",
		FixTimeMinutes:  60,
		Priority:        3,
		RequiresCodeFix: true,
	}}
}

func debugStatementRule(analysis *model.LogAnalysis, thresholds Thresholds) []model.Issue {
	count := 0
	analysis.Root.Walk(func(node *model.ExecutionNode) bool {
		if node.Kind == model.KindDebug {
			count++
		}
		return true
	})
	if count <= thresholds.DebugStatementLimit {
		return nil
	}
	return []model.Issue{{
		Code:            "debug_statements",
		Severity:        model.IssueLow,
		Problem:         fmt.Sprintf("%d System.debug statements executed", count),
		Impact:          "Debug output costs CPU time even when nobody reads it",
		ImpactValue:     float64(count),
		Fix:             "Remove debug statements from loops and hot paths",
		FixTimeMinutes:  5,
		Priority:        5,
		RequiresCodeFix: true,
	}}
}
