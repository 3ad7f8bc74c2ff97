package detector

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
)

type phaseKey struct {
	phaseType model.PhaseType
	name      string
}

func phaseTypeOf(node *model.ExecutionNode) (model.PhaseType, bool) {
	switch node.Kind {
	case model.KindCodeUnit:
		if node.Metadata["entry_point_type"] == string(model.EntryTrigger) {
			return model.PhaseTrigger, true
		}
		return model.PhaseCodeUnit, true
	case model.KindFlow:
		return model.PhaseFlow, true
	case model.KindValidation:
		return model.PhaseValidation, true
	case model.KindDML:
		return model.PhaseDML, true
	default:
		return "", false
	}
}

// BuildTimeline lists automation phases in document order. A phase is
// recursive when a phase of the same type and name is one of its ancestors.
func BuildTimeline(root *model.ExecutionNode) model.ExecutionTimeline {
	timeline := model.ExecutionTimeline{Phases: []model.TimelinePhase{}}
	seenRecursive := make(map[string]bool)
	var walk func(node *model.ExecutionNode, ancestors []phaseKey)
	walk = func(node *model.ExecutionNode, ancestors []phaseKey) {
		if phaseType, ok := phaseTypeOf(node); ok {
			key := phaseKey{phaseType: phaseType, name: node.Name}
			recursive := false
			for _, ancestor := range ancestors {
				if ancestor == key {
					recursive = true
					break
				}
			}
			end := node.StartNanos
			if node.EndNanos != nil {
				end = *node.EndNanos
			}
			timeline.Phases = append(timeline.Phases, model.TimelinePhase{
				Name:        node.Name,
				Type:        phaseType,
				StartNanos:  node.StartNanos,
				EndNanos:    end,
				DurationMs:  node.DurationMs,
				Depth:       node.Depth,
				IsRecursive: recursive,
				Line:        node.StartLine,
			})
			if recursive {
				timeline.RecursionCount++
				if !seenRecursive[node.Name] {
					seenRecursive[node.Name] = true
					timeline.RecursiveUnits = append(timeline.RecursiveUnits, node.Name)
				}
			}
			ancestors = append(ancestors[:len(ancestors):len(ancestors)], key)
		}
		for _, child := range node.Children {
			walk(child, ancestors)
		}
	}
	if root != nil {
		walk(root, nil)
	}
	return timeline
}
