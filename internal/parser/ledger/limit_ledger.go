package ledger

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"regexp"
	"strconv"
	"strings"
)

var usagePattern = regexp.MustCompile(`^\s*(.+?):\s*(\d+)\s+out of\s+(\d+)`)

// Ledger collects the cumulative limit usage sections of one trace. Snapshots
// for managed package namespaces are kept beside the default ones, never summed
// into them, and the testing limits block is kept apart from both.
type Ledger struct {
	defaults   []model.GovernorLimitSnapshot
	namespaces []model.GovernorLimitSnapshot
	testing    *model.GovernorLimitSnapshot
	inTesting  bool
	sections   int
}

type Result struct {
	Defaults     []model.GovernorLimitSnapshot
	Namespaces   []model.GovernorLimitSnapshot
	Testing      *model.GovernorLimitSnapshot
	SectionCount int
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Consume(event model.RawEvent) {
	switch event.Code {
	case model.CumulativeLimitUsage:
		l.sections++
		l.inTesting = false
	case model.CumulativeLimitUsageEnd:
		l.inTesting = false
	case model.TestingLimits:
		l.inTesting = true
	case model.LimitUsageForNs:
		namespace := strings.TrimSpace(event.Field(0))
		if namespace == "" {
			namespace = model.DefaultNamespace
		}
		snapshot := ParseSnapshot(namespace, event.Continuation)
		snapshot.Nanos = event.Nanos
		snapshot.LineNumber = event.LineNumber
		switch {
		case l.inTesting:
			if snapshot.IsDefaultNamespace() {
				l.testing = &snapshot
			}
		case snapshot.IsDefaultNamespace():
			l.defaults = append(l.defaults, snapshot)
		default:
			l.namespaces = append(l.namespaces, snapshot)
		}
	}
}

func (l *Ledger) Result() Result {
	return Result{
		Defaults:     l.defaults,
		Namespaces:   l.namespaces,
		Testing:      l.testing,
		SectionCount: l.sections,
	}
}

// ParseSnapshot reads "Number of SOQL queries: 11 out of 100" style lines.
// Unknown counters are ignored.
func ParseSnapshot(namespace string, lines []string) model.GovernorLimitSnapshot {
	snapshot := model.GovernorLimitSnapshot{Namespace: namespace}
	for _, line := range lines {
		match := usagePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		used, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		ceiling, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		if counter := counterFor(&snapshot, match[1]); counter != nil {
			*counter = model.LimitUsage{Used: used, Max: ceiling}
		}
	}
	return snapshot
}

func counterFor(s *model.GovernorLimitSnapshot, label string) *model.LimitUsage {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(label, "number of soql queries"):
		return &s.SoqlQueries
	case strings.HasPrefix(label, "number of sosl queries"):
		return &s.SoslQueries
	case strings.HasPrefix(label, "number of query rows"):
		return &s.QueryRows
	case strings.HasPrefix(label, "number of dml statements"):
		return &s.DmlStatements
	case strings.HasPrefix(label, "number of dml rows"):
		return &s.DmlRows
	case strings.HasPrefix(label, "maximum cpu time"):
		return &s.CpuTime
	case strings.HasPrefix(label, "maximum heap size"):
		return &s.HeapSize
	case strings.HasPrefix(label, "number of callouts"):
		return &s.Callouts
	case strings.HasPrefix(label, "number of future calls"):
		return &s.FutureCalls
	case strings.HasPrefix(label, "number of queueable jobs"):
		return &s.QueueableJobs
	}
	return nil
}
