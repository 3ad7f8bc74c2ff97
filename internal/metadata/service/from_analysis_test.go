package service

import (
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestFromAnalysis(t *testing.T) {
	t.Run("should carry identity counters and record id over from a full parse", func(t *testing.T) {
		root := parserModel.NewExecutionNode("trace", parserModel.KindTransaction, 0, 0)
		root.AddChild(parserModel.NewExecutionNode(
			"ContactTrigger on Contact trigger event AfterInsert for [003xx000004TmiQ]",
			parserModel.KindCodeUnit, 0, 1,
		))
		analysis := &parserModel.LogAnalysis{
			Name:       "full.log",
			UserId:     "005xx000001Sv6e",
			EntryPoint: "ContactTrigger on Contact trigger event AfterInsert for [003xx000004TmiQ]",
			DurationMs: 250,
			Root:       root,
			LimitSnapshots: []parserModel.GovernorLimitSnapshot{{
				Namespace:   parserModel.DefaultNamespace,
				SoqlQueries: parserModel.LimitUsage{Used: 3, Max: 100},
			}},
			TransactionFailed: true,
		}
		start := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)

		metadata := FromAnalysis(analysis, start)

		assert.Equal(t, "005xx000001Sv6e", metadata.UserId)
		assert.Equal(t, parserModel.EntryTrigger, metadata.EntryPointType)
		assert.Equal(t, "003xx000004TmiQ", metadata.RecordId)
		assert.Equal(t, 3, metadata.SoqlQueries)
		assert.True(t, metadata.HasErrors)
		assert.Equal(t, start.Add(250*time.Millisecond), metadata.EndTimestamp)
	})
}
