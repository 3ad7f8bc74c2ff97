package model

// ExceptionContext is what the tree builder observed around one thrown
// exception. Severity is decided from it after the tree is complete.
type ExceptionContext struct {
	IsFatalMarker      bool `json:"is_fatal_marker"`
	FatalFollows       bool `json:"fatal_follows"`
	SoftFailureFollows bool `json:"soft_failure_follows"`
	ExecutionContinued bool `json:"execution_continued"`
}

type PendingException struct {
	Node    *ExecutionNode
	Context ExceptionContext
}
