package service

import (
	"github.com/Avi18971911/DebugLens/internal/grouping/model"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
	"time"
)

var base = time.Date(2026, time.May, 11, 14, 0, 0, 0, time.UTC)

func record(
	name string,
	user string,
	offset time.Duration,
	durationMs float64,
	entryType parserModel.EntryPointType,
) metadataModel.DebugLogMetadata {
	start := base.Add(offset)
	return metadataModel.DebugLogMetadata{
		LogName:        name,
		UserId:         user,
		Timestamp:      start,
		EndTimestamp:   start.Add(time.Duration(durationMs * float64(time.Millisecond))),
		DurationMs:     durationMs,
		EntryPoint:     name,
		EntryPointType: entryType,
		Context:        entryType.Context(),
	}
}

func newGrouper(t *testing.T) TransactionGrouperService {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return NewTransactionGrouperService(DefaultOptions(), logger)
}

func TestGroup(t *testing.T) {
	grouper := newGrouper(t)

	t.Run("should cluster two logs of the same user three seconds apart", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("a", "005A", 0, 100, parserModel.EntryTrigger),
			record("b", "005A", 3*time.Second, 100, parserModel.EntryFlow),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Members, 2)
		assert.Equal(t, base, groups[0].Start)
		assert.Equal(t, 3100.0, groups[0].DurationMs)
	})

	t.Run("should split logs fifteen seconds apart", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("a", "005A", 0, 100, parserModel.EntryTrigger),
			record("b", "005A", 15*time.Second, 100, parserModel.EntryTrigger),
		}, 10*time.Second)

		require.Len(t, groups, 2)
		assert.Equal(t, "a", groups[0].Members[0].LogName)
		assert.Equal(t, "b", groups[1].Members[0].LogName)
	})

	t.Run("should measure the window from the first log of the group instead of chaining", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("a", "005A", 0, 100, parserModel.EntryTrigger),
			record("b", "005A", 8*time.Second, 100, parserModel.EntryTrigger),
			record("c", "005A", 16*time.Second, 100, parserModel.EntryTrigger),
			record("d", "005A", 24*time.Second, 100, parserModel.EntryTrigger),
		}, 10*time.Second)

		require.Len(t, groups, 2)
		require.Len(t, groups[0].Members, 2)
		require.Len(t, groups[1].Members, 2)
		assert.Equal(t, "a", groups[0].Members[0].LogName)
		assert.Equal(t, "b", groups[0].Members[1].LogName)
		assert.Equal(t, "c", groups[1].Members[0].LogName)
		assert.Equal(t, "d", groups[1].Members[1].LogName)
	})

	t.Run("should never mix users and should use the default window", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("a", "005A", 0, 100, parserModel.EntryTrigger),
			record("b", "005B", time.Second, 100, parserModel.EntryTrigger),
		}, 0)

		assert.Len(t, groups, 2)
	})

	t.Run("should split on a different record id", func(t *testing.T) {
		first := record("a", "005A", 0, 100, parserModel.EntryTrigger)
		first.RecordId = "001xx000003DGb2"
		second := record("b", "005A", time.Second, 100, parserModel.EntryTrigger)
		second.RecordId = "001xx000003DGb3"
		third := record("c", "005A", 2*time.Second, 100, parserModel.EntryTrigger)

		groups := grouper.Group([]metadataModel.DebugLogMetadata{first, second, third}, 10*time.Second)

		require.Len(t, groups, 2)
		assert.Equal(t, "001xx000003DGb2", groups[0].RecordId)
		assert.Len(t, groups[1].Members, 2)
	})

	t.Run("should be deterministic and leave the input untouched", func(t *testing.T) {
		input := []metadataModel.DebugLogMetadata{
			record("late", "005A", 2*time.Second, 100, parserModel.EntryTrigger),
			record("early", "005A", 0, 100, parserModel.EntryTrigger),
		}

		first := grouper.Group(input, 10*time.Second)
		second := grouper.Group(input, 10*time.Second)

		assert.Equal(t, first, second)
		assert.Equal(t, "late", input[0].LogName)
		assert.Equal(t, "early", first[0].Members[0].LogName)
	})

	t.Run("should segment phases and measure the gap between them", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("page", "005A", 0, 200, parserModel.EntryUIController),
			record("trigger", "005A", time.Second, 300, parserModel.EntryTrigger),
			record("job", "005A", 2*time.Second, 400, parserModel.EntryQueueable),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		phases := groups[0].Phases
		require.Len(t, phases, 3)
		assert.Equal(t, model.PhaseFrontend, phases[0].Type)
		assert.Equal(t, 800.0, phases[0].GapToNextMs)
		assert.Equal(t, model.PhaseBackend, phases[1].Type)
		assert.Equal(t, 700.0, phases[1].GapToNextMs)
		assert.Equal(t, model.PhaseAsync, phases[2].Type)
		assert.Equal(t, 400.0, phases[2].DurationMs)
	})

	t.Run("should estimate savings for sequential frontend requests", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("load-header", "005A", 0, 400, parserModel.EntryUIController),
			record("load-body", "005A", 500*time.Millisecond, 600, parserModel.EntryUIController),
			record("load-footer", "005A", 1200*time.Millisecond, 300, parserModel.EntryUIController),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		assert.Equal(t, model.LoadingSequential, groups[0].FrontendLoading)
		assert.Equal(t, 700.0, groups[0].PotentialSavingsMs)
		require.Len(t, groups[0].Recommendations, 1)
		assert.Contains(t, groups[0].Recommendations[0], "700 ms")
	})

	t.Run("should report no savings when frontend requests overlap", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("load-header", "005A", 0, 400, parserModel.EntryUIController),
			record("load-body", "005A", 100*time.Millisecond, 600, parserModel.EntryUIController),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		assert.Equal(t, model.LoadingParallel, groups[0].FrontendLoading)
		assert.Equal(t, 0.0, groups[0].PotentialSavingsMs)
		assert.Empty(t, groups[0].Recommendations)
	})

	t.Run("should count re-entries of the same entry point", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("AccountTrigger", "005A", 0, 10, parserModel.EntryTrigger),
			record("AccountTrigger", "005A", time.Second, 10, parserModel.EntryTrigger),
			record("AccountTrigger", "005A", 2*time.Second, 10, parserModel.EntryTrigger),
			record("ContactTrigger", "005A", 3*time.Second, 10, parserModel.EntryTrigger),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		assert.Equal(t, map[string]int{"AccountTrigger": 3}, groups[0].ReEntries)
		assert.Equal(t, 2, groups[0].TotalReEntries)
		assert.True(t, groups[0].HasRecursion())
		require.Len(t, groups[0].Recommendations, 1)
		assert.Contains(t, groups[0].Recommendations[0], "AccountTrigger")
	})

	t.Run("should flag mixed interactive and batch contexts", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("save", "005A", 0, 10, parserModel.EntryTrigger),
			record("edit", "005A", time.Second, 10, parserModel.EntryFlow),
			record("cleanup", "005A", 2*time.Second, 10, parserModel.EntryBatch),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		group := groups[0]
		assert.True(t, group.MixedContext)
		assert.Equal(t, parserModel.ContextInteractive, group.PrimaryContext)
		assert.Equal(t, []parserModel.ExecutionContext{parserModel.ContextInteractive, parserModel.ContextBatch}, group.Contexts)
		require.Len(t, group.Recommendations, 1)
		assert.Contains(t, group.Recommendations[0], "dedicated")
	})

	t.Run("should recommend splitting a slow async job", func(t *testing.T) {
		groups := grouper.Group([]metadataModel.DebugLogMetadata{
			record("QueueableHandler", "005A", 0, 6500, parserModel.EntryQueueable),
		}, 10*time.Second)

		require.Len(t, groups, 1)
		require.Len(t, groups[0].Recommendations, 1)
		assert.Contains(t, groups[0].Recommendations[0], "6500 ms")
	})
}

func TestBuildInteraction(t *testing.T) {
	t.Run("should span every captured record", func(t *testing.T) {
		grouper := newGrouper(t)
		records := []metadataModel.DebugLogMetadata{
			record("a", "005A", time.Second, 500, parserModel.EntryTrigger),
			record("b", "005A", 0, 100, parserModel.EntryTrigger),
			record("c", "005B", 30*time.Second, 100, parserModel.EntryTrigger),
		}

		interaction := grouper.BuildInteraction(records, nil, 10*time.Second)

		assert.Equal(t, base, interaction.Start)
		assert.Equal(t, base.Add(30100*time.Millisecond), interaction.End)
		assert.Len(t, interaction.Groups, 2)
		assert.NotEmpty(t, interaction.Id)
		assert.Equal(t, interaction.Id, grouper.BuildInteraction(records, nil, 10*time.Second).Id)
	})
}
