package evaluator

import "github.com/thomasrohde/dscript/pkg/ast"

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart    TraceEventType = "run_start"
	TraceRunEnd      TraceEventType = "run_end"
	TraceFnCallStart TraceEventType = "fn_call_start"
	TraceFnCallEnd   TraceEventType = "fn_call_end"
	TraceBuiltin     TraceEventType = "builtin"
	TraceNew         TraceEventType = "new"
	TraceValidate    TraceEventType = "validate"
)

// TraceEvent is emitted during execution when Options.Trace is set.
// Events are numbered in emission order; no clock is consulted.
type TraceEvent struct {
	Seq   int            `json:"seq"`
	Event TraceEventType `json:"event"`
	Name  string         `json:"name,omitempty"`
	Depth int            `json:"depth"`
	Span  *ast.Span      `json:"span,omitempty"`
}

func (in *Interpreter) emit(event TraceEventType, name string, span *ast.Span) {
	if in.opts.Trace == nil {
		return
	}
	in.traceSeq++
	in.opts.Trace(TraceEvent{
		Seq:   in.traceSeq,
		Event: event,
		Name:  name,
		Depth: in.stack.depth(),
		Span:  span,
	})
}
