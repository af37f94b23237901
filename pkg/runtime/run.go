package runtime

import (
	"context"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/evaluator"
	"github.com/thomasrohde/dscript/pkg/value"
)

// ScriptFunctionName is reported as currentFunctionName for errors raised
// outside any user function.
const ScriptFunctionName = "<script>"

// run is the state of a single execution.
type run struct {
	engine    *Engine
	in        *evaluator.Interpreter
	reporting bool
}

// execute seeds, parses, runs and optionally calls entry. On failure the
// snapshot holds whatever the run had produced.
func (r *run) execute(ctx context.Context, source, entry string, args []value.Value, initial value.Map) (value.Map, value.Value, error) {
	if err := r.in.Seed(initial); err != nil {
		return r.in.Snapshot(), value.NewNull(), err
	}
	prog, err := r.engine.parse(source)
	if err != nil {
		return r.in.Snapshot(), value.NewNull(), err
	}
	if err := r.in.Execute(ctx, prog); err != nil {
		return r.in.Snapshot(), value.NewNull(), err
	}
	if entry == "" {
		return r.in.Snapshot(), value.NewNull(), nil
	}
	if !r.in.HasFunction(entry) {
		err := diagnostics.Errorf(diagnostics.EUndefinedFn, entry, "entry function '%s' is not defined", entry)
		return r.in.Snapshot(), value.NewNull(), err
	}
	result, err := r.in.CallFunction(ctx, entry, args)
	if err != nil {
		return r.in.Snapshot(), value.NewNull(), err
	}
	return r.in.Snapshot(), result, nil
}

// report delivers err to the configured error callback. Failures of the
// callback are logged and dropped; errors raised while reporting are never
// reported again.
func (r *run) report(ctx context.Context, err error) {
	if r.reporting {
		return
	}
	r.reporting = true
	defer func() { r.reporting = false }()

	name := r.engine.errorCallback
	log := r.engine.log.New("callback", name)
	r.in.Unwind()
	if !r.in.HasFunction(name) {
		log.Warn("Error callback is not defined", "err", err)
		return
	}
	if _, cerr := r.in.CallFunction(ctx, name, []value.Value{ErrorValue(err)}); cerr != nil {
		log.Warn("Error callback failed", "err", cerr, "reported", err)
		r.in.Unwind()
	}
}

// ErrorValue converts an engine error to the map handed to error callbacks:
// {kind, subjectName, currentFunctionName, line, message}. subjectName and
// line are null when unknown.
func ErrorValue(err error) value.Map {
	de := diagnostics.As(err)
	subject := value.NewNull()
	if de.Subject != "" {
		subject = value.NewString(de.Subject)
	}
	fn := de.Function
	if fn == "" {
		fn = ScriptFunctionName
	}
	line := value.NewNull()
	if l := de.Line(); l > 0 {
		line = value.NewNumber(float64(l))
	}
	return value.NewMap(
		value.KeyValue{Key: "kind", Value: value.NewString(diagnostics.KindName(de.Code))},
		value.KeyValue{Key: "subjectName", Value: subject},
		value.KeyValue{Key: "currentFunctionName", Value: value.NewString(fn)},
		value.KeyValue{Key: "line", Value: line},
		value.KeyValue{Key: "message", Value: value.NewString(de.Message)},
	)
}
