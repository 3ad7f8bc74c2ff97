package model

// EventCode is the second pipe-delimited field of an event line, e.g. SOQL_EXECUTE_BEGIN.
type EventCode string

const (
	ExecutionStarted  EventCode = "EXECUTION_STARTED"
	ExecutionFinished EventCode = "EXECUTION_FINISHED"

	CodeUnitStarted  EventCode = "CODE_UNIT_STARTED"
	CodeUnitFinished EventCode = "CODE_UNIT_FINISHED"

	MethodEntry       EventCode = "METHOD_ENTRY"
	MethodExit        EventCode = "METHOD_EXIT"
	ConstructorEntry  EventCode = "CONSTRUCTOR_ENTRY"
	ConstructorExit   EventCode = "CONSTRUCTOR_EXIT"
	SystemMethodEntry EventCode = "SYSTEM_METHOD_ENTRY"
	SystemMethodExit  EventCode = "SYSTEM_METHOD_EXIT"

	SoqlExecuteBegin   EventCode = "SOQL_EXECUTE_BEGIN"
	SoqlExecuteEnd     EventCode = "SOQL_EXECUTE_END"
	SoqlExecuteExplain EventCode = "SOQL_EXECUTE_EXPLAIN"
	SoslExecuteBegin   EventCode = "SOSL_EXECUTE_BEGIN"
	SoslExecuteEnd     EventCode = "SOSL_EXECUTE_END"

	DmlBegin EventCode = "DML_BEGIN"
	DmlEnd   EventCode = "DML_END"

	CalloutRequest  EventCode = "CALLOUT_REQUEST"
	CalloutResponse EventCode = "CALLOUT_RESPONSE"

	FlowStartInterviewBegin EventCode = "FLOW_START_INTERVIEW_BEGIN"
	FlowStartInterviewEnd   EventCode = "FLOW_START_INTERVIEW_END"
	FlowElementError        EventCode = "FLOW_ELEMENT_ERROR"
	FlowElementFault        EventCode = "FLOW_ELEMENT_FAULT"

	ValidationRule  EventCode = "VALIDATION_RULE"
	ValidationPass  EventCode = "VALIDATION_PASS"
	ValidationFail  EventCode = "VALIDATION_FAIL"
	ValidationError EventCode = "VALIDATION_ERROR"

	ExceptionThrown EventCode = "EXCEPTION_THROWN"
	FatalError      EventCode = "FATAL_ERROR"

	UserDebug EventCode = "USER_DEBUG"
	UserInfo  EventCode = "USER_INFO"

	CumulativeLimitUsage    EventCode = "CUMULATIVE_LIMIT_USAGE"
	CumulativeLimitUsageEnd EventCode = "CUMULATIVE_LIMIT_USAGE_END"
	LimitUsageForNs         EventCode = "LIMIT_USAGE_FOR_NS"
	TestingLimits           EventCode = "TESTING_LIMITS"
)

// EventCategory is the closed set of event families the analyzer understands.
// Codes outside the known table classify as CategoryUnrecognized and are skipped.
type EventCategory int

const (
	CategoryUnrecognized EventCategory = iota
	CategoryExecution
	CategoryCodeUnit
	CategoryMethod
	CategoryQuery
	CategoryDML
	CategoryCallout
	CategoryFlow
	CategoryValidation
	CategoryException
	CategoryDebug
	CategoryLedger
	CategoryIdentity
)

var categoryNames = map[EventCategory]string{
	CategoryUnrecognized: "unrecognized",
	CategoryExecution:    "execution",
	CategoryCodeUnit:     "code_unit",
	CategoryMethod:       "method",
	CategoryQuery:        "query",
	CategoryDML:          "dml",
	CategoryCallout:      "callout",
	CategoryFlow:         "flow",
	CategoryValidation:   "validation",
	CategoryException:    "exception",
	CategoryDebug:        "debug",
	CategoryLedger:       "ledger",
	CategoryIdentity:     "identity",
}

func (c EventCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unrecognized"
}

// RawEvent is one classified event line. Continuation holds the lines that
// followed it without a timestamp prefix (ledger bodies, multi-line debug output).
type RawEvent struct {
	Timestamp    string        `json:"timestamp"`
	Nanos        int64         `json:"nanos"`
	Code         EventCode     `json:"code"`
	Category     EventCategory `json:"category"`
	Fields       []string      `json:"fields"`
	LineNumber   int           `json:"line_number"`
	Continuation []string      `json:"continuation,omitempty"`
}

// Field returns the i-th field or "" when the line was shorter.
func (e RawEvent) Field(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i]
}

// LastField returns the final field, which most begin/end events use for names.
func (e RawEvent) LastField() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[len(e.Fields)-1]
}
