package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"sort"
)

func CollectMethodStats(root *model.ExecutionNode) []model.MethodStatistics {
	stats := make(map[string]*model.MethodStatistics)
	var order []string
	root.Walk(func(node *model.ExecutionNode) bool {
		if node.Kind != model.KindMethod {
			return true
		}
		entry, ok := stats[node.Name]
		if !ok {
			entry = &model.MethodStatistics{Name: node.Name}
			stats[node.Name] = entry
			order = append(order, node.Name)
		}
		entry.CallCount++
		entry.TotalDurationMs += node.DurationMs
		entry.MaxDurationMs = max(entry.MaxDurationMs, node.DurationMs)
		entry.SelfTimeMs += node.SelfTimeMs()
		return true
	})

	result := make([]model.MethodStatistics, 0, len(order))
	for _, name := range order {
		result = append(result, *stats[name])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalDurationMs > result[j].TotalDurationMs
	})
	return result
}
