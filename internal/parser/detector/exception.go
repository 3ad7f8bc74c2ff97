package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
)

// ExceptionPolicy holds the tunable part of exception classification.
// UnresolvedSeverity applies to a throw after which the trace shows nothing
// at all, which happens when the trace is cut right after the throw.
type ExceptionPolicy struct {
	UnresolvedSeverity model.ExceptionSeverity
}

func DefaultExceptionPolicy() ExceptionPolicy {
	return ExceptionPolicy{UnresolvedSeverity: model.SeverityUnhandled}
}

func ClassifyException(ctx model.ExceptionContext, policy ExceptionPolicy) model.ExceptionSeverity {
	switch {
	case ctx.IsFatalMarker:
		return model.SeverityFatal
	case ctx.FatalFollows:
		return model.SeverityUnhandled
	case !ctx.ExecutionContinued:
		if policy.UnresolvedSeverity == "" {
			return model.SeverityUnhandled
		}
		return policy.UnresolvedSeverity
	case ctx.SoftFailureFollows:
		return model.SeverityWarning
	default:
		return model.SeverityHandled
	}
}

type ExceptionSummary struct {
	Errors            []*model.ExecutionNode
	HandledExceptions []*model.ExecutionNode
	TransactionFailed bool
}

// ClassifyExceptions assigns a severity to every thrown exception node and
// splits them into failures and caught exceptions. Warnings count as caught.
func ClassifyExceptions(pending []model.PendingException, policy ExceptionPolicy) ExceptionSummary {
	summary := ExceptionSummary{
		Errors:            []*model.ExecutionNode{},
		HandledExceptions: []*model.ExecutionNode{},
	}
	for _, exception := range pending {
		severity := ClassifyException(exception.Context, policy)
		exception.Node.Severity = severity
		if severity.IsFailure() {
			summary.Errors = append(summary.Errors, exception.Node)
			summary.TransactionFailed = true
		} else {
			summary.HandledExceptions = append(summary.HandledExceptions, exception.Node)
		}
	}
	return summary
}
