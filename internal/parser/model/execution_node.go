package model

type NodeKind string

const (
	KindTransaction  NodeKind = "transaction"
	KindCodeUnit     NodeKind = "code_unit"
	KindMethod       NodeKind = "method"
	KindSystemMethod NodeKind = "system_method"
	KindQuery        NodeKind = "query"
	KindDML          NodeKind = "dml"
	KindException    NodeKind = "exception"
	KindDebug        NodeKind = "debug"
	KindValidation   NodeKind = "validation"
	KindFlow         NodeKind = "flow"
)

type ExceptionSeverity string

const (
	SeverityNone      ExceptionSeverity = ""
	SeverityHandled   ExceptionSeverity = "Handled"
	SeverityWarning   ExceptionSeverity = "Warning"
	SeverityUnhandled ExceptionSeverity = "Unhandled"
	SeverityFatal     ExceptionSeverity = "Fatal"
)

// IsFailure reports whether an exception of this severity fails the transaction.
func (s ExceptionSeverity) IsFailure() bool {
	return s == SeverityUnhandled || s == SeverityFatal
}

// ExecutionNode is one entry of the call tree. A node owns its children; there
// are no parent references, the builder keeps the open path on its own stack.
type ExecutionNode struct {
	Name       string            `json:"name"`
	Kind       NodeKind          `json:"kind"`
	StartNanos int64             `json:"start_nanos"`
	EndNanos   *int64            `json:"end_nanos,omitempty"`
	DurationMs float64           `json:"duration_ms"`
	Depth      int               `json:"depth"`
	StartLine  int               `json:"start_line"`
	EndLine    int               `json:"end_line"`
	Severity   ExceptionSeverity `json:"severity,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Children   []*ExecutionNode  `json:"children,omitempty"`
}

func NewExecutionNode(name string, kind NodeKind, startNanos int64, line int) *ExecutionNode {
	return &ExecutionNode{
		Name:       name,
		Kind:       kind,
		StartNanos: startNanos,
		StartLine:  line,
		EndLine:    line,
		Metadata:   make(map[string]string),
	}
}

func (n *ExecutionNode) IsClosed() bool {
	return n.EndNanos != nil
}

// Close sets the end timestamp and duration. An end before the start is
// clamped to the start so the duration never goes negative.
func (n *ExecutionNode) Close(endNanos int64, line int) {
	if endNanos < n.StartNanos {
		endNanos = n.StartNanos
	}
	end := endNanos
	n.EndNanos = &end
	n.EndLine = line
	n.DurationMs = NanosToMillis(endNanos - n.StartNanos)
}

func (n *ExecutionNode) AddChild(child *ExecutionNode) {
	n.Children = append(n.Children, child)
}

// Walk visits the subtree depth-first in document order. Returning false from
// visit skips the node's children.
func (n *ExecutionNode) Walk(visit func(node *ExecutionNode) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// SelfTimeMs is the node's duration minus the time spent in its children.
func (n *ExecutionNode) SelfTimeMs() float64 {
	self := n.DurationMs
	for _, child := range n.Children {
		self -= child.DurationMs
	}
	if self < 0 {
		return 0
	}
	return self
}

// MaxSubtreeDepth is the number of levels below and including this node.
func (n *ExecutionNode) MaxSubtreeDepth() int {
	deepest := 0
	for _, child := range n.Children {
		if d := child.MaxSubtreeDepth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func NanosToMillis(nanos int64) float64 {
	return float64(nanos) / 1_000_000
}
