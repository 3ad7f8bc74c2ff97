package tree

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"strings"
)

const implicitlyClosedKey = "implicitly_closed"

// Options tunes the builder. SoftFailureMarkers are the event codes that turn
// a caught exception into a Warning instead of Handled.
type Options struct {
	SoftFailureMarkers map[model.EventCode]bool
}

func DefaultOptions() Options {
	return Options{
		SoftFailureMarkers: map[model.EventCode]bool{
			model.ValidationFail:   true,
			model.ValidationError:  true,
			model.FlowElementError: true,
			model.FlowElementFault: true,
		},
	}
}

// DepthTracker records the deepest point the open stack reached.
type DepthTracker struct {
	MaxDepth       int
	MaxDepthLine   int
	MaxDepthMethod string
}

type Result struct {
	Root               *model.ExecutionNode
	DatabaseOperations []model.DatabaseOperation
	Callouts           []model.CalloutOperation
	Flows              []model.FlowExecution
	Exceptions         []model.PendingException
	Depth              DepthTracker
	OpenNodes          int
	StartSeen          bool
	FinishSeen         bool
	DurationMs         float64
	UserId             string
	UserName           string
	EntryPoint         string
	CodeUnits          []string
	DebugStatements    int
	UnmatchedEnds      int
}

type thrownRecord struct {
	node        *model.ExecutionNode
	frame       *model.ExecutionNode
	frameClosed bool
	context     model.ExceptionContext
}

// Builder turns the classified event stream of one trace into a call tree.
// It is single use and not safe for concurrent use.
type Builder struct {
	opts            Options
	root            *model.ExecutionNode
	stack           []*model.ExecutionNode
	pendingOps      map[*model.ExecutionNode]*model.DatabaseOperation
	pendingFlows    map[*model.ExecutionNode]*model.FlowExecution
	pendingCallouts []model.CalloutOperation
	ops             []model.DatabaseOperation
	callouts        []model.CalloutOperation
	flows           []model.FlowExecution
	thrown          []*thrownRecord
	thrownByFrame   map[*model.ExecutionNode][]*thrownRecord
	depth           DepthTracker
	startNanos      int64
	finishNanos     int64
	lastNanos       int64
	startSeen       bool
	finishSeen      bool
	anyEvent        bool
	userId          string
	userName        string
	codeUnits       []string
	debugStatements int
	unmatchedEnds   int
}

func NewBuilder(name string, opts Options) *Builder {
	if opts.SoftFailureMarkers == nil {
		opts = DefaultOptions()
	}
	root := model.NewExecutionNode(name, model.KindTransaction, 0, 0)
	return &Builder{
		opts:          opts,
		root:          root,
		stack:         []*model.ExecutionNode{root},
		pendingOps:    make(map[*model.ExecutionNode]*model.DatabaseOperation),
		pendingFlows:  make(map[*model.ExecutionNode]*model.FlowExecution),
		thrownByFrame: make(map[*model.ExecutionNode][]*thrownRecord),
	}
}

func (b *Builder) Consume(ev model.RawEvent) {
	if ev.Category == model.CategoryUnrecognized {
		return
	}
	if !b.anyEvent {
		b.anyEvent = true
		b.root.StartNanos = ev.Nanos
		b.root.StartLine = ev.LineNumber
	}
	if ev.Nanos > b.lastNanos {
		b.lastNanos = ev.Nanos
	}
	b.observeForExceptions(ev)

	switch ev.Code {
	case model.ExecutionStarted:
		if !b.startSeen {
			b.startSeen = true
			b.startNanos = ev.Nanos
			b.root.StartNanos = ev.Nanos
			b.root.StartLine = ev.LineNumber
		}
	case model.ExecutionFinished:
		b.finishSeen = true
		b.finishNanos = ev.Nanos
		b.root.Close(ev.Nanos, ev.LineNumber)
	case model.CodeUnitStarted:
		name := model.CodeUnitName(ev.Fields)
		b.codeUnits = append(b.codeUnits, name)
		node := b.push(name, model.KindCodeUnit, ev)
		node.Metadata["entry_point_type"] = string(model.ClassifyEntryPoint(name))
	case model.CodeUnitFinished:
		b.closeMatching(ev, func(n *model.ExecutionNode) bool { return n.Kind == model.KindCodeUnit })
	case model.MethodEntry, model.ConstructorEntry:
		b.push(methodName(ev.Fields), model.KindMethod, ev)
	case model.MethodExit, model.ConstructorExit:
		b.closeMethod(ev, model.KindMethod)
	case model.SystemMethodEntry:
		b.push(methodName(ev.Fields), model.KindSystemMethod, ev)
	case model.SystemMethodExit:
		b.closeMethod(ev, model.KindSystemMethod)
	case model.SoqlExecuteBegin:
		b.beginQuery(ev, model.OperationSOQL, joinFrom(ev.Fields, 2))
	case model.SoslExecuteBegin:
		b.beginQuery(ev, model.OperationSOSL, joinFrom(ev.Fields, 1))
	case model.SoqlExecuteEnd:
		b.endOperation(ev, model.OperationSOQL)
	case model.SoslExecuteEnd:
		b.endOperation(ev, model.OperationSOSL)
	case model.SoqlExecuteExplain:
		b.attachPlan(ev)
	case model.DmlBegin:
		b.beginDML(ev)
	case model.DmlEnd:
		b.endOperation(ev, model.OperationDML)
	case model.CalloutRequest:
		b.beginCallout(ev)
	case model.CalloutResponse:
		b.endCallout(ev)
	case model.FlowStartInterviewBegin:
		b.beginFlow(ev)
	case model.FlowStartInterviewEnd:
		b.endFlow(ev)
	case model.FlowElementError, model.FlowElementFault:
		b.faultFlow(ev)
	case model.ValidationRule:
		b.push(ev.LastField(), model.KindValidation, ev)
	case model.ValidationPass, model.ValidationFail:
		node, ok := b.closeMatching(ev, func(n *model.ExecutionNode) bool { return n.Kind == model.KindValidation })
		if ok {
			node.Metadata["result"] = strings.ToLower(strings.TrimPrefix(string(ev.Code), "VALIDATION_"))
		}
	case model.ValidationError:
		if node := b.nearest(model.KindValidation); node != nil {
			node.Metadata["error"] = ev.LastField()
		}
	case model.ExceptionThrown:
		b.throwException(ev)
	case model.FatalError:
		b.fatalError(ev)
	case model.UserDebug:
		b.debugStatement(ev)
	case model.UserInfo:
		b.userInfo(ev)
	}
}

// Finish freezes the tree. Nodes still open stay open: nothing is closed on
// the caller's behalf, and operations whose end never arrived are dropped.
func (b *Builder) Finish() Result {
	start := b.root.StartNanos
	var duration float64
	if b.finishSeen {
		duration = model.NanosToMillis(b.finishNanos - start)
	} else {
		duration = model.NanosToMillis(b.lastNanos - start)
		b.root.DurationMs = duration
	}
	if duration < 0 {
		duration = 0
	}

	exceptions := make([]model.PendingException, len(b.thrown))
	for i, record := range b.thrown {
		exceptions[i] = model.PendingException{Node: record.node, Context: record.context}
	}

	entryPoint := ""
	if len(b.codeUnits) > 0 {
		entryPoint = b.codeUnits[0]
	}

	return Result{
		Root:               b.root,
		DatabaseOperations: b.ops,
		Callouts:           b.callouts,
		Flows:              b.flows,
		Exceptions:         exceptions,
		Depth:              b.depth,
		OpenNodes:          len(b.stack) - 1,
		StartSeen:          b.startSeen,
		FinishSeen:         b.finishSeen,
		DurationMs:         duration,
		UserId:             b.userId,
		UserName:           b.userName,
		EntryPoint:         entryPoint,
		CodeUnits:          b.codeUnits,
		DebugStatements:    b.debugStatements,
		UnmatchedEnds:      b.unmatchedEnds,
	}
}

func (b *Builder) top() *model.ExecutionNode {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) push(name string, kind model.NodeKind, ev model.RawEvent) *model.ExecutionNode {
	node := model.NewExecutionNode(name, kind, ev.Nanos, ev.LineNumber)
	node.Depth = len(b.stack)
	if ref := lineRef(ev.Fields); ref != "" {
		node.Metadata["line_ref"] = ref
	}
	b.top().AddChild(node)
	b.stack = append(b.stack, node)
	if node.Depth > b.depth.MaxDepth {
		b.depth = DepthTracker{
			MaxDepth:       node.Depth,
			MaxDepthLine:   ev.LineNumber,
			MaxDepthMethod: b.nearestCallableName(),
		}
	}
	return node
}

func (b *Builder) leaf(name string, kind model.NodeKind, ev model.RawEvent) *model.ExecutionNode {
	node := model.NewExecutionNode(name, kind, ev.Nanos, ev.LineNumber)
	node.Depth = len(b.stack)
	node.Close(ev.Nanos, ev.LineNumber)
	b.top().AddChild(node)
	return node
}

func (b *Builder) nearest(kind model.NodeKind) *model.ExecutionNode {
	for i := len(b.stack) - 1; i >= 1; i-- {
		if b.stack[i].Kind == kind {
			return b.stack[i]
		}
	}
	return nil
}

func (b *Builder) nearestCallableName() string {
	for i := len(b.stack) - 1; i >= 1; i-- {
		switch b.stack[i].Kind {
		case model.KindMethod, model.KindSystemMethod, model.KindCodeUnit:
			return b.stack[i].Name
		}
	}
	return ""
}

// closeMatching pops up to and including the nearest node accepted by match.
// Nodes above it never saw their own end line and are closed implicitly.
func (b *Builder) closeMatching(
	ev model.RawEvent,
	match func(n *model.ExecutionNode) bool,
) (*model.ExecutionNode, bool) {
	for i := len(b.stack) - 1; i >= 1; i-- {
		if !match(b.stack[i]) {
			continue
		}
		for j := len(b.stack) - 1; j > i; j-- {
			orphan := b.stack[j]
			orphan.Close(ev.Nanos, ev.LineNumber)
			orphan.Metadata[implicitlyClosedKey] = "true"
			b.onClosed(orphan, false)
		}
		node := b.stack[i]
		node.Close(ev.Nanos, ev.LineNumber)
		b.stack = b.stack[:i]
		b.onClosed(node, true)
		return node, true
	}
	b.unmatchedEnds++
	return nil, false
}

func (b *Builder) closeMethod(ev model.RawEvent, kind model.NodeKind) {
	name := methodName(ev.Fields)
	target := b.nearestMatching(func(n *model.ExecutionNode) bool {
		return n.Kind == kind && n.Name == name
	})
	if target == nil && b.top().Kind == kind {
		target = b.top()
	}
	if target == nil {
		b.unmatchedEnds++
		return
	}
	b.closeMatching(ev, func(n *model.ExecutionNode) bool { return n == target })
}

func (b *Builder) nearestMatching(match func(n *model.ExecutionNode) bool) *model.ExecutionNode {
	for i := len(b.stack) - 1; i >= 1; i-- {
		if match(b.stack[i]) {
			return b.stack[i]
		}
	}
	return nil
}

// onClosed releases bookkeeping for a node leaving the stack. explicit is false
// when the node was closed because an outer end line arrived first.
func (b *Builder) onClosed(node *model.ExecutionNode, explicit bool) {
	for _, record := range b.thrownByFrame[node] {
		record.frameClosed = true
	}
	delete(b.thrownByFrame, node)
	if op, ok := b.pendingOps[node]; ok {
		delete(b.pendingOps, node)
		if explicit {
			op.DurationMs = node.DurationMs
			b.ops = append(b.ops, *op)
		}
	}
	if flow, ok := b.pendingFlows[node]; ok {
		delete(b.pendingFlows, node)
		if explicit {
			flow.DurationMs = node.DurationMs
			b.flows = append(b.flows, *flow)
		}
	}
}

func (b *Builder) beginQuery(ev model.RawEvent, opType model.OperationType, query string) {
	node := b.push(query, model.KindQuery, ev)
	node.Metadata["operation"] = string(opType)
	b.pendingOps[node] = &model.DatabaseOperation{
		Type:       opType,
		Query:      query,
		ObjectType: queryObject(query),
		StartNanos: ev.Nanos,
		LineNumber: ev.LineNumber,
	}
}

func (b *Builder) beginDML(ev model.RawEvent) {
	values := keyValues(ev.Fields)
	verb, objectType := values["op"], values["type"]
	node := b.push(strings.TrimSpace(verb+" "+objectType), model.KindDML, ev)
	node.Metadata["operation"] = string(model.OperationDML)
	b.pendingOps[node] = &model.DatabaseOperation{
		Type:         model.OperationDML,
		DMLVerb:      verb,
		ObjectType:   objectType,
		RowsAffected: atoi(values["rows"]),
		StartNanos:   ev.Nanos,
		LineNumber:   ev.LineNumber,
	}
}

func (b *Builder) endOperation(ev model.RawEvent, opType model.OperationType) {
	target := b.nearestMatching(func(n *model.ExecutionNode) bool {
		op, pending := b.pendingOps[n]
		return pending && op.Type == opType
	})
	if target == nil {
		b.unmatchedEnds++
		return
	}
	if rows, found := keyValues(ev.Fields)["rows"]; found && opType != model.OperationDML {
		target.Metadata["rows"] = rows
		b.pendingOps[target].RowsAffected = atoi(rows)
	}
	b.closeMatching(ev, func(n *model.ExecutionNode) bool { return n == target })
}

func (b *Builder) attachPlan(ev model.RawEvent) {
	for i := len(b.stack) - 1; i >= 1; i-- {
		if op, ok := b.pendingOps[b.stack[i]]; ok && op.Type == model.OperationSOQL {
			op.ExecutionPlan = joinFrom(ev.Fields, 1)
			op.RelativeCost = relativeCost(op.ExecutionPlan)
			return
		}
	}
}

func (b *Builder) beginCallout(ev model.RawEvent) {
	values := bracketValues(ev.LastField())
	b.pendingCallouts = append(b.pendingCallouts, model.CalloutOperation{
		Endpoint:   values["endpoint"],
		Method:     values["method"],
		StartNanos: ev.Nanos,
		LineNumber: ev.LineNumber,
	})
}

func (b *Builder) endCallout(ev model.RawEvent) {
	if len(b.pendingCallouts) == 0 {
		b.unmatchedEnds++
		return
	}
	op := b.pendingCallouts[0]
	b.pendingCallouts = b.pendingCallouts[1:]
	values := bracketValues(ev.LastField())
	op.StatusCode = atoi(values["statuscode"])
	op.Status = values["status"]
	op.DurationMs = model.NanosToMillis(ev.Nanos - op.StartNanos)
	if op.DurationMs < 0 {
		op.DurationMs = 0
	}
	op.IsError = op.StatusCode >= 400
	b.callouts = append(b.callouts, op)
}

func (b *Builder) beginFlow(ev model.RawEvent) {
	interviewId := ev.Field(0)
	flowName := ev.LastField()
	node := b.push(flowName, model.KindFlow, ev)
	node.Metadata["interview_id"] = interviewId
	b.pendingFlows[node] = &model.FlowExecution{
		InterviewId: interviewId,
		FlowName:    flowName,
		StartNanos:  ev.Nanos,
		LineNumber:  ev.LineNumber,
	}
}

func (b *Builder) endFlow(ev model.RawEvent) {
	interviewId := ev.Field(0)
	target := b.nearestMatching(func(n *model.ExecutionNode) bool {
		return n.Kind == model.KindFlow && n.Metadata["interview_id"] == interviewId
	})
	if target == nil && b.top().Kind == model.KindFlow {
		target = b.top()
	}
	if target == nil {
		b.unmatchedEnds++
		return
	}
	b.closeMatching(ev, func(n *model.ExecutionNode) bool { return n == target })
}

func (b *Builder) faultFlow(ev model.RawEvent) {
	node := b.nearest(model.KindFlow)
	if node == nil {
		return
	}
	node.Metadata["faulted"] = "true"
	if flow, ok := b.pendingFlows[node]; ok {
		flow.Faulted = true
		flow.FaultMessage = ev.Field(0)
	}
}

func (b *Builder) throwException(ev model.RawEvent) {
	exceptionType, message := splitException(joinFrom(ev.Fields, 1), ev.Continuation)
	frame := b.top()
	node := b.leaf(exceptionType, model.KindException, ev)
	node.Metadata["message"] = message
	record := &thrownRecord{node: node, frame: frame}
	b.thrown = append(b.thrown, record)
	b.thrownByFrame[frame] = append(b.thrownByFrame[frame], record)
}

func (b *Builder) fatalError(ev model.RawEvent) {
	exceptionType, message := splitException(joinFrom(ev.Fields, 0), ev.Continuation)
	node := b.leaf(exceptionType, model.KindException, ev)
	node.Metadata["message"] = message
	node.Metadata["fatal"] = "true"
	b.thrown = append(b.thrown, &thrownRecord{
		node:    node,
		frame:   b.top(),
		context: model.ExceptionContext{IsFatalMarker: true},
	})
}

func (b *Builder) debugStatement(ev model.RawEvent) {
	b.debugStatements++
	message := joinFrom(ev.Fields, 2)
	if len(ev.Continuation) > 0 {
		message = message + "\n" + strings.Join(ev.Continuation, "\n")
	}
	node := b.leaf(truncate(message, 120), model.KindDebug, ev)
	node.Metadata["level"] = ev.Field(1)
	node.Metadata["message"] = message
}

func (b *Builder) userInfo(ev model.RawEvent) {
	for i, field := range ev.Fields {
		if model.IsSalesforceId(field) {
			b.userId = field
			if i+1 < len(ev.Fields) {
				b.userName = strings.TrimSpace(ev.Fields[i+1])
			}
			return
		}
	}
}

// observeForExceptions updates the context of every exception thrown so far
// with what the current event says about how execution went on afterwards.
func (b *Builder) observeForExceptions(ev model.RawEvent) {
	if len(b.thrown) == 0 {
		return
	}
	isFatal := ev.Code == model.FatalError
	isSoft := b.opts.SoftFailureMarkers[ev.Code]
	bookkeeping := ev.Category == model.CategoryLedger || ev.Category == model.CategoryExecution
	for _, record := range b.thrown {
		if record.context.IsFatalMarker {
			continue
		}
		switch {
		case isFatal:
			record.context.FatalFollows = true
		case ev.Code == model.ExceptionThrown, bookkeeping:
		case isSoft:
			record.context.ExecutionContinued = true
			if !record.frameClosed {
				record.context.SoftFailureFollows = true
			}
		default:
			record.context.ExecutionContinued = true
		}
	}
}
