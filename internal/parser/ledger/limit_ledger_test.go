package ledger

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func limitEvent(code model.EventCode, namespace string, body ...string) model.RawEvent {
	fields := []string{}
	if namespace != "" {
		fields = append(fields, namespace, "")
	}
	return model.RawEvent{Code: code, Fields: fields, Continuation: body}
}

func TestLedger(t *testing.T) {
	t.Run("should keep namespaces beside the default snapshot", func(t *testing.T) {
		ledger := NewLedger()
		ledger.Consume(limitEvent(model.CumulativeLimitUsage, ""))
		ledger.Consume(limitEvent(model.LimitUsageForNs, "(default)",
			"Number of SOQL queries: 11 out of 100",
			"Maximum CPU time: 250 out of 10000",
		))
		ledger.Consume(limitEvent(model.LimitUsageForNs, "acme",
			"Number of SOQL queries: 10 out of 100",
			"Number of DML statements: 2 out of 150",
		))
		ledger.Consume(limitEvent(model.CumulativeLimitUsageEnd, ""))

		result := ledger.Result()

		require.Len(t, result.Defaults, 1)
		assert.Equal(t, model.LimitUsage{Used: 11, Max: 100}, result.Defaults[0].SoqlQueries)
		assert.Equal(t, model.LimitUsage{Used: 250, Max: 10000}, result.Defaults[0].CpuTime)
		require.Len(t, result.Namespaces, 1)
		assert.Equal(t, "acme", result.Namespaces[0].Namespace)
		assert.Equal(t, 2, result.Namespaces[0].DmlStatements.Used)
		assert.Equal(t, 1, result.SectionCount)
		assert.Nil(t, result.Testing)
	})

	t.Run("should capture testing limits separately", func(t *testing.T) {
		ledger := NewLedger()
		ledger.Consume(limitEvent(model.TestingLimits, ""))
		ledger.Consume(limitEvent(model.LimitUsageForNs, "(default)", "Number of SOQL queries: 4 out of 100"))
		ledger.Consume(limitEvent(model.CumulativeLimitUsage, ""))
		ledger.Consume(limitEvent(model.LimitUsageForNs, "(default)", "Number of SOQL queries: 9 out of 100"))

		result := ledger.Result()

		require.NotNil(t, result.Testing)
		assert.Equal(t, 4, result.Testing.SoqlQueries.Used)
		require.Len(t, result.Defaults, 1)
		assert.Equal(t, 9, result.Defaults[0].SoqlQueries.Used)
	})
}

func TestComputeHiddenConsumption(t *testing.T) {
	t.Run("should subtract visible operations from the authoritative counters", func(t *testing.T) {
		final := model.GovernorLimitSnapshot{
			SoqlQueries:   model.LimitUsage{Used: 11, Max: 100},
			DmlStatements: model.LimitUsage{Used: 0, Max: 150},
		}
		ops := []model.DatabaseOperation{
			{Type: model.OperationSOQL},
			{Type: model.OperationDML},
		}

		hidden := ComputeHiddenConsumption(final, ops)

		assert.Equal(t, model.HiddenConsumption{Soql: 10}, hidden)
	})
}

func TestSplitCustomMetadata(t *testing.T) {
	t.Run("should count metadata types apart from regular queries", func(t *testing.T) {
		ops := []model.DatabaseOperation{
			{Type: model.OperationSOQL, ObjectType: "Account"},
			{Type: model.OperationSOQL, ObjectType: "Routing_Rule__MDT"},
			{Type: model.OperationSOQL},
			{Type: model.OperationDML, ObjectType: "Config__mdt"},
		}

		regular, metadata := SplitCustomMetadata(ops)

		assert.Equal(t, 2, regular)
		assert.Equal(t, 1, metadata)
	})
}
