package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/Avi18971911/DebugLens/internal/parser/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func methodAt(name string, depth int) *model.ExecutionNode {
	node := model.NewExecutionNode(name, model.KindMethod, 0, 1)
	node.Depth = depth
	node.Close(1_000_000, 1)
	return node
}

func TestRiskForFrames(t *testing.T) {
	t.Run("should place frame counts into the four bands", func(t *testing.T) {
		assert.Equal(t, model.StackRiskSafe, RiskForFrames(299))
		assert.Equal(t, model.StackRiskModerate, RiskForFrames(300))
		assert.Equal(t, model.StackRiskModerate, RiskForFrames(599))
		assert.Equal(t, model.StackRiskWarning, RiskForFrames(600))
		assert.Equal(t, model.StackRiskWarning, RiskForFrames(800))
		assert.Equal(t, model.StackRiskCritical, RiskForFrames(801))
	})
}

func TestAnalyzeStackDepth(t *testing.T) {
	t.Run("should estimate frames from the deepest point", func(t *testing.T) {
		root := model.NewExecutionNode("trace", model.KindTransaction, 0, 0)
		analysis := AnalyzeStackDepth(
			root,
			tree.DepthTracker{MaxDepth: 350, MaxDepthLine: 42, MaxDepthMethod: "Recursive.call()"},
			DefaultStackDepthOptions(),
		)

		assert.Equal(t, 700, analysis.EstimatedFrames)
		assert.Equal(t, model.StackRiskWarning, analysis.Risk)
		assert.Equal(t, 42, analysis.MaxDepthLine)
		assert.Equal(t, "Recursive.call()", analysis.MaxDepthMethod)
		assert.Empty(t, analysis.LoopPatterns)
	})

	t.Run("should report a method called repeatedly at the same depth as a loop", func(t *testing.T) {
		root := model.NewExecutionNode("trace", model.KindTransaction, 0, 0)
		unit := model.NewExecutionNode("Batch", model.KindCodeUnit, 0, 1)
		unit.Depth = 1
		root.AddChild(unit)
		for i := 0; i < 6; i++ {
			call := methodAt("Handler.process()", 2)
			call.AddChild(methodAt("Repo.load()", 3))
			unit.AddChild(call)
		}
		for i := 0; i < 5; i++ {
			unit.AddChild(methodAt("Deep.walk()", 2+i))
		}

		analysis := AnalyzeStackDepth(root, tree.DepthTracker{MaxDepth: 6}, DefaultStackDepthOptions())

		require.Len(t, analysis.LoopPatterns, 2)
		assert.Equal(t, model.LoopPattern{
			Method:                 "Handler.process()",
			CallCount:              6,
			Depth:                  2,
			EstimatedFramesPerCall: 4,
		}, analysis.LoopPatterns[0])
		assert.Equal(t, "Repo.load()", analysis.LoopPatterns[1].Method)
	})

	t.Run("should only accept calls whose depths differ by at most one", func(t *testing.T) {
		root := model.NewExecutionNode("trace", model.KindTransaction, 0, 0)
		for i := 0; i < 6; i++ {
			root.AddChild(methodAt("Near.visit()", 5+i%2))
			root.AddChild(methodAt("Far.visit()", 5+2*(i%2)))
		}

		analysis := AnalyzeStackDepth(root, tree.DepthTracker{MaxDepth: 7}, DefaultStackDepthOptions())

		require.Len(t, analysis.LoopPatterns, 1)
		assert.Equal(t, "Near.visit()", analysis.LoopPatterns[0].Method)
		assert.Equal(t, 5, analysis.LoopPatterns[0].Depth)
		assert.Equal(t, 6, analysis.LoopPatterns[0].CallCount)
	})
}

func TestCollectMethodStats(t *testing.T) {
	t.Run("should aggregate calls by method name sorted by total duration", func(t *testing.T) {
		root := model.NewExecutionNode("trace", model.KindTransaction, 0, 0)
		slow := model.NewExecutionNode("Slow.run()", model.KindMethod, 0, 1)
		slow.Close(10_000_000, 2)
		inner := model.NewExecutionNode("Fast.run()", model.KindMethod, 1_000_000, 1)
		inner.Close(4_000_000, 2)
		slow.AddChild(inner)
		root.AddChild(slow)
		root.AddChild(methodAt("Fast.run()", 1))

		stats := CollectMethodStats(root)

		require.Len(t, stats, 2)
		assert.Equal(t, "Slow.run()", stats[0].Name)
		assert.Equal(t, 10.0, stats[0].TotalDurationMs)
		assert.Equal(t, 7.0, stats[0].SelfTimeMs)
		assert.Equal(t, "Fast.run()", stats[1].Name)
		assert.Equal(t, 2, stats[1].CallCount)
		assert.Equal(t, 4.0, stats[1].TotalDurationMs)
		assert.Equal(t, 3.0, stats[1].MaxDurationMs)
	})
}
