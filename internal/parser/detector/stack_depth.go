package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/Avi18971911/DebugLens/internal/parser/tree"
	"sort"
)

const (
	moderateFrames = 300
	warningFrames  = 600
	criticalFrames = 800
)

type StackDepthOptions struct {
	FramesPerLevel  int
	LoopMinCalls    int
	LoopDepthSpread int
}

func DefaultStackDepthOptions() StackDepthOptions {
	return StackDepthOptions{
		FramesPerLevel:  2,
		LoopMinCalls:    5,
		LoopDepthSpread: 1,
	}
}

func RiskForFrames(frames int) model.StackRisk {
	switch {
	case frames > criticalFrames:
		return model.StackRiskCritical
	case frames >= warningFrames:
		return model.StackRiskWarning
	case frames >= moderateFrames:
		return model.StackRiskModerate
	default:
		return model.StackRiskSafe
	}
}

func AnalyzeStackDepth(
	root *model.ExecutionNode,
	depth tree.DepthTracker,
	opts StackDepthOptions,
) model.StackDepthAnalysis {
	if opts.FramesPerLevel <= 0 {
		opts = DefaultStackDepthOptions()
	}
	frames := depth.MaxDepth * opts.FramesPerLevel
	return model.StackDepthAnalysis{
		MaxDepth:        depth.MaxDepth,
		MaxDepthLine:    depth.MaxDepthLine,
		MaxDepthMethod:  depth.MaxDepthMethod,
		EstimatedFrames: frames,
		Risk:            RiskForFrames(frames),
		LoopPatterns:    detectLoopPatterns(root, opts),
	}
}

type methodCalls struct {
	count    int
	minDepth int
	maxDepth int
	maxCost  int
}

// detectLoopPatterns reports methods entered many times at roughly the same
// depth, the signature of a call made once per iteration.
func detectLoopPatterns(root *model.ExecutionNode, opts StackDepthOptions) []model.LoopPattern {
	calls := make(map[string]*methodCalls)
	var order []string
	root.Walk(func(node *model.ExecutionNode) bool {
		if node.Kind != model.KindMethod {
			return true
		}
		entry, ok := calls[node.Name]
		if !ok {
			entry = &methodCalls{minDepth: node.Depth, maxDepth: node.Depth}
			calls[node.Name] = entry
			order = append(order, node.Name)
		}
		entry.count++
		entry.minDepth = min(entry.minDepth, node.Depth)
		entry.maxDepth = max(entry.maxDepth, node.Depth)
		entry.maxCost = max(entry.maxCost, node.MaxSubtreeDepth()*opts.FramesPerLevel)
		return true
	})

	patterns := make([]model.LoopPattern, 0)
	for _, name := range order {
		entry := calls[name]
		if entry.count < opts.LoopMinCalls || entry.maxDepth-entry.minDepth > opts.LoopDepthSpread {
			continue
		}
		patterns = append(patterns, model.LoopPattern{
			Method:                 name,
			CallCount:              entry.count,
			Depth:                  entry.minDepth,
			EstimatedFramesPerCall: entry.maxCost,
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].CallCount != patterns[j].CallCount {
			return patterns[i].CallCount > patterns[j].CallCount
		}
		return patterns[i].Method < patterns[j].Method
	})
	return patterns
}
