package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestClassifyException(t *testing.T) {
	policy := DefaultExceptionPolicy()

	t.Run("should classify a caught exception as handled", func(t *testing.T) {
		ctx := model.ExceptionContext{ExecutionContinued: true}
		assert.Equal(t, model.SeverityHandled, ClassifyException(ctx, policy))
	})

	t.Run("should classify a caught exception with a soft failure as a warning", func(t *testing.T) {
		ctx := model.ExceptionContext{ExecutionContinued: true, SoftFailureFollows: true}
		assert.Equal(t, model.SeverityWarning, ClassifyException(ctx, policy))
	})

	t.Run("should classify a throw followed by a fatal error as unhandled", func(t *testing.T) {
		ctx := model.ExceptionContext{ExecutionContinued: true, FatalFollows: true}
		assert.Equal(t, model.SeverityUnhandled, ClassifyException(ctx, policy))
	})

	t.Run("should classify the fatal marker itself as fatal", func(t *testing.T) {
		ctx := model.ExceptionContext{IsFatalMarker: true}
		assert.Equal(t, model.SeverityFatal, ClassifyException(ctx, policy))
	})

	t.Run("should default an unresolved throw to unhandled", func(t *testing.T) {
		assert.Equal(t, model.SeverityUnhandled, ClassifyException(model.ExceptionContext{}, policy))
		assert.Equal(t, model.SeverityUnhandled, ClassifyException(model.ExceptionContext{}, ExceptionPolicy{}))
	})

	t.Run("should let the policy soften unresolved throws", func(t *testing.T) {
		lenient := ExceptionPolicy{UnresolvedSeverity: model.SeverityWarning}
		assert.Equal(t, model.SeverityWarning, ClassifyException(model.ExceptionContext{}, lenient))
	})
}

func TestClassifyExceptions(t *testing.T) {
	t.Run("should keep caught exceptions out of the errors list", func(t *testing.T) {
		caught := model.NewExecutionNode("System.NullPointerException", model.KindException, 0, 1)
		warned := model.NewExecutionNode("System.CustomException", model.KindException, 0, 2)
		summary := ClassifyExceptions([]model.PendingException{
			{Node: caught, Context: model.ExceptionContext{ExecutionContinued: true}},
			{Node: warned, Context: model.ExceptionContext{ExecutionContinued: true, SoftFailureFollows: true}},
		}, DefaultExceptionPolicy())

		assert.False(t, summary.TransactionFailed)
		assert.Empty(t, summary.Errors)
		assert.Equal(t, []*model.ExecutionNode{caught, warned}, summary.HandledExceptions)
		assert.Equal(t, model.SeverityHandled, caught.Severity)
		assert.Equal(t, model.SeverityWarning, warned.Severity)
	})

	t.Run("should fail the transaction when any exception is fatal", func(t *testing.T) {
		fatal := model.NewExecutionNode("System.LimitException", model.KindException, 0, 1)
		summary := ClassifyExceptions([]model.PendingException{
			{Node: fatal, Context: model.ExceptionContext{IsFatalMarker: true}},
		}, DefaultExceptionPolicy())

		assert.True(t, summary.TransactionFailed)
		assert.Equal(t, []*model.ExecutionNode{fatal}, summary.Errors)
		assert.Empty(t, summary.HandledExceptions)
	})
}
