package tree

import (
	"github.com/Avi18971911/DebugLens/internal/parser/classifier"
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func build(lines ...string) Result {
	stream := classifier.NewEventStream(strings.Join(lines, "\n"))
	builder := NewBuilder("test.log", DefaultOptions())
	for ev := range stream.Events() {
		builder.Consume(ev)
	}
	return builder.Finish()
}

func TestBuilder(t *testing.T) {
	t.Run("should nest methods under the code unit and compute durations", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|EXECUTION_STARTED",
			"10:00:00.0 (2000000)|CODE_UNIT_STARTED|[EXTERNAL]|01q000000000001|AccountTrigger on Account trigger event BeforeInsert|__sfdc_trigger/AccountTrigger",
			"10:00:00.0 (3000000)|METHOD_ENTRY|[1]|01p000000000001|AccountService.process()",
			"10:00:00.0 (8000000)|METHOD_EXIT|[1]|01p000000000001|AccountService|AccountService.process()",
			"10:00:00.0 (9000000)|CODE_UNIT_FINISHED|AccountTrigger on Account trigger event BeforeInsert|__sfdc_trigger/AccountTrigger",
			"10:00:00.0 (11000000)|EXECUTION_FINISHED",
		)

		require.Len(t, result.Root.Children, 1)
		unit := result.Root.Children[0]
		assert.Equal(t, "AccountTrigger on Account trigger event BeforeInsert", unit.Name)
		assert.Equal(t, model.KindCodeUnit, unit.Kind)
		assert.Equal(t, 7.0, unit.DurationMs)
		require.Len(t, unit.Children, 1)
		method := unit.Children[0]
		assert.Equal(t, "AccountService.process()", method.Name)
		assert.Equal(t, 5.0, method.DurationMs)
		assert.Equal(t, 2, method.Depth)
		assert.Equal(t, 10.0, result.DurationMs)
		assert.Equal(t, 0, result.OpenNodes)
		assert.True(t, result.StartSeen)
		assert.True(t, result.FinishSeen)
		assert.Equal(t, "AccountTrigger on Account trigger event BeforeInsert", result.EntryPoint)
	})

	t.Run("should emit a query whose end arrived and drop one whose end never arrived", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|EXECUTION_STARTED",
			"10:00:00.0 (2000000)|CODE_UNIT_STARTED|[EXTERNAL]|execute_anonymous_apex",
			"10:00:00.0 (3000000)|SOQL_EXECUTE_BEGIN|[3]|Aggregations:0|SELECT Id FROM Account",
			"10:00:00.0 (5000000)|SOQL_EXECUTE_END|[3]|Rows:4",
			"10:00:00.0 (6000000)|SOQL_EXECUTE_BEGIN|[4]|Aggregations:0|SELECT Id FROM Contact",
		)

		require.Len(t, result.DatabaseOperations, 1)
		op := result.DatabaseOperations[0]
		assert.Equal(t, model.OperationSOQL, op.Type)
		assert.Equal(t, "SELECT Id FROM Account", op.Query)
		assert.Equal(t, "Account", op.ObjectType)
		assert.Equal(t, 4, op.RowsAffected)
		assert.Equal(t, 2.0, op.DurationMs)
		assert.Equal(t, 2, result.OpenNodes)
		assert.False(t, result.FinishSeen)
		assert.Equal(t, 5.0, result.DurationMs)

		open := result.Root.Children[0].Children[1]
		assert.False(t, open.IsClosed())
	})

	t.Run("should pair DML begin and end with the operation verb and object", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|DML_BEGIN|[10]|Op:Insert|Type:Account|Rows:3",
			"10:00:00.0 (4000000)|DML_END|[10]",
		)

		require.Len(t, result.DatabaseOperations, 1)
		op := result.DatabaseOperations[0]
		assert.Equal(t, model.OperationDML, op.Type)
		assert.Equal(t, "Insert", op.DMLVerb)
		assert.Equal(t, "Account", op.ObjectType)
		assert.Equal(t, 3, op.RowsAffected)
		assert.Equal(t, 3.0, op.DurationMs)
		assert.Equal(t, "Insert Account", result.Root.Children[0].Name)
	})

	t.Run("should close nodes left open when an outer end arrives", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|CODE_UNIT_STARTED|[EXTERNAL]|MyController",
			"10:00:00.0 (2000000)|METHOD_ENTRY|[1]|MyController.load()",
			"10:00:00.0 (3000000)|SOQL_EXECUTE_BEGIN|[2]|Aggregations:0|SELECT Id FROM Lead",
			"10:00:00.0 (9000000)|CODE_UNIT_FINISHED|MyController",
		)

		assert.Equal(t, 0, result.OpenNodes)
		assert.Empty(t, result.DatabaseOperations)
		method := result.Root.Children[0].Children[0]
		assert.True(t, method.IsClosed())
		assert.Equal(t, "true", method.Metadata[implicitlyClosedKey])
	})

	t.Run("should count an end with no open begin as unmatched", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|METHOD_EXIT|[1]|Foo.bar()",
			"10:00:00.0 (2000000)|DML_END|[1]",
		)

		assert.Equal(t, 2, result.UnmatchedEnds)
		assert.Empty(t, result.Root.Children)
	})

	t.Run("should track the deepest point of the stack", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|CODE_UNIT_STARTED|[EXTERNAL]|Deep",
			"10:00:00.0 (2000000)|METHOD_ENTRY|[1]|A.one()",
			"10:00:00.0 (3000000)|METHOD_ENTRY|[2]|A.two()",
			"10:00:00.0 (4000000)|METHOD_EXIT|[2]|A.two()",
			"10:00:00.0 (5000000)|METHOD_EXIT|[1]|A.one()",
			"10:00:00.0 (6000000)|CODE_UNIT_FINISHED|Deep",
		)

		assert.Equal(t, 3, result.Depth.MaxDepth)
		assert.Equal(t, "A.two()", result.Depth.MaxDepthMethod)
		assert.Equal(t, 3, result.Depth.MaxDepthLine)
	})

	t.Run("should name constructors after their class", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|CONSTRUCTOR_ENTRY|[5]|01p000000000001|<init>()|Invoice",
			"10:00:00.0 (2000000)|CONSTRUCTOR_EXIT|[5]|01p000000000001|<init>()|Invoice",
		)

		require.Len(t, result.Root.Children, 1)
		assert.Equal(t, "Invoice.<init>()", result.Root.Children[0].Name)
		assert.True(t, result.Root.Children[0].IsClosed())
	})

	t.Run("should pair callouts in order and flag error status codes", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|CALLOUT_REQUEST|[7]|System.HttpRequest[Endpoint=https://api.example.com/a, Method=POST]",
			"10:00:00.0 (301000000)|CALLOUT_RESPONSE|[7]|System.HttpResponse[Status=Server Error, StatusCode=500]",
			"10:00:00.0 (302000000)|CALLOUT_REQUEST|[8]|System.HttpRequest[Endpoint=https://api.example.com/b, Method=GET]",
		)

		require.Len(t, result.Callouts, 1)
		callout := result.Callouts[0]
		assert.Equal(t, "https://api.example.com/a", callout.Endpoint)
		assert.Equal(t, "POST", callout.Method)
		assert.Equal(t, 500, callout.StatusCode)
		assert.Equal(t, 300.0, callout.DurationMs)
		assert.True(t, callout.IsError)
	})

	t.Run("should record flows and mark faults on the active interview", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|FLOW_START_INTERVIEW_BEGIN|3010a000000001|Update_Contacts",
			"10:00:00.0 (2000000)|FLOW_ELEMENT_ERROR|This error occurred when the flow tried to update records|Update_Records",
			"10:00:00.0 (4000000)|FLOW_START_INTERVIEW_END|3010a000000001|Update_Contacts",
		)

		require.Len(t, result.Flows, 1)
		flow := result.Flows[0]
		assert.Equal(t, "Update_Contacts", flow.FlowName)
		assert.True(t, flow.Faulted)
		assert.Equal(t, 3.0, flow.DurationMs)
	})

	t.Run("should capture user identity and debug statements", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|USER_INFO|[EXTERNAL]|005xx000001Sv6e|jane@example.com|Pacific Standard Time|GMT-08:00",
			"10:00:00.0 (2000000)|USER_DEBUG|[3]|DEBUG|hello",
			"world",
		)

		assert.Equal(t, "005xx000001Sv6e", result.UserId)
		assert.Equal(t, "jane@example.com", result.UserName)
		assert.Equal(t, 1, result.DebugStatements)
		require.Len(t, result.Root.Children, 1)
		assert.Equal(t, "hello\nworld", result.Root.Children[0].Metadata["message"])
		assert.Equal(t, "DEBUG", result.Root.Children[0].Metadata["level"])
	})
}

func TestBuilderExceptionContext(t *testing.T) {
	t.Run("should see execution continue after a caught exception", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|METHOD_ENTRY|[1]|Svc.run()",
			"10:00:00.0 (2000000)|EXCEPTION_THROWN|[2]|System.NullPointerException: Attempt to de-reference a null object",
			"10:00:00.0 (3000000)|METHOD_EXIT|[1]|Svc.run()",
		)

		require.Len(t, result.Exceptions, 1)
		pending := result.Exceptions[0]
		assert.Equal(t, "System.NullPointerException", pending.Node.Name)
		assert.Equal(t, "Attempt to de-reference a null object", pending.Node.Metadata["message"])
		assert.True(t, pending.Context.ExecutionContinued)
		assert.False(t, pending.Context.FatalFollows)
		assert.False(t, pending.Context.SoftFailureFollows)
	})

	t.Run("should mark a throw followed by a fatal error", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|EXCEPTION_THROWN|[2]|System.DmlException: Insert failed",
			"10:00:00.0 (2000000)|FATAL_ERROR|System.DmlException: Insert failed",
		)

		require.Len(t, result.Exceptions, 2)
		assert.True(t, result.Exceptions[0].Context.FatalFollows)
		assert.True(t, result.Exceptions[1].Context.IsFatalMarker)
	})

	t.Run("should mark a soft failure while the throwing frame is still open", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|VALIDATION_RULE|[EXTERNAL]|03d000000000001|Require_Email",
			"10:00:00.0 (2000000)|EXCEPTION_THROWN|[2]|System.CustomException: bad",
			"10:00:00.0 (3000000)|VALIDATION_FAIL",
		)

		require.Len(t, result.Exceptions, 1)
		assert.True(t, result.Exceptions[0].Context.SoftFailureFollows)
		assert.True(t, result.Exceptions[0].Context.ExecutionContinued)
	})

	t.Run("should leave a throw at the end of the trace unresolved", func(t *testing.T) {
		result := build(
			"10:00:00.0 (1000000)|METHOD_ENTRY|[1]|Svc.run()",
			"10:00:00.0 (2000000)|EXCEPTION_THROWN|[2]|System.LimitException: Too many SOQL queries: 101",
		)

		require.Len(t, result.Exceptions, 1)
		assert.Equal(t, model.ExceptionContext{}, result.Exceptions[0].Context)
	})
}
