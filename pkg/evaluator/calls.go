package evaluator

import (
	"strings"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/shaping"
	"github.com/thomasrohde/dscript/pkg/value"
)

func (in *Interpreter) evalArgs(args []ast.Arg) ([]value.Value, error) {
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		v, err := in.eval(a.Expr)
		if err != nil {
			return nil, err
		}
		if !a.Spread {
			out = append(out, v)
			continue
		}
		arr, ok := v.(value.Array)
		if !ok {
			return nil, diagnostics.Errorf(diagnostics.EType, "",
				"spread argument must be an array, got %s", value.TypeName(v)).At(a.Expr.NodeSpan())
		}
		out = append(out, arr.Items...)
	}
	return out, nil
}

// evalCall resolves a named call in fixed priority order: pseudo-builtins,
// call() in inference mode, user functions, builtins, then a variable
// holding a function reference (or a string in inference mode).
func (in *Interpreter) evalCall(e *ast.Call) (value.Value, error) {
	args, err := in.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	span := e.Span

	switch e.Callee {
	case "varexists", "getglobal", "setglobal":
		v, err := in.callPseudo(e.Callee, args)
		if err != nil {
			return nil, diagnostics.As(err).At(span)
		}
		return v, nil
	case "call":
		if in.opts.Mode == Inference {
			if len(args) == 0 {
				return nil, diagnostics.Errorf(diagnostics.EArity, "call", "call() needs a function name").At(span)
			}
			name, err := value.AsString(args[0])
			if err != nil {
				return nil, diagnostics.As(err).At(span)
			}
			return in.callByName(name, args[1:], &span)
		}
	}

	if fn, ok := in.userFns[e.Callee]; ok {
		return in.invoke(fn, nil, args, span)
	}
	if _, ok := in.opts.Builtins[e.Callee]; ok {
		return in.callBuiltin(e.Callee, args, span)
	}
	if in.opts.Mode == Inference {
		if v, ok := in.env.Get(e.Callee); ok {
			switch ref := v.(type) {
			case value.FuncRef:
				return in.callByName(ref.Name, args, &span)
			case value.String:
				return in.callByName(ref.Value, args, &span)
			}
		}
	}

	if e.Callee == "call" {
		return nil, diagnostics.Errorf(diagnostics.EUndefinedFn, "call",
			"function 'call' is only available in INFERENCE mode").At(span)
	}
	return nil, diagnostics.Errorf(diagnostics.EUndefinedFn, e.Callee, "undefined function '%s'", e.Callee).At(span)
}

// callByName calls a user function or builtin. It never follows variables.
func (in *Interpreter) callByName(name string, args []value.Value, span *ast.Span) (value.Value, error) {
	var at ast.Span
	if span != nil {
		at = *span
	}
	if fn, ok := in.userFns[name]; ok {
		return in.invoke(fn, nil, args, at)
	}
	if _, ok := in.opts.Builtins[name]; ok {
		return in.callBuiltin(name, args, at)
	}
	err := diagnostics.Errorf(diagnostics.EUndefinedFn, name, "undefined function '%s'", name)
	if span != nil {
		err.At(*span)
	}
	return nil, err
}

func (in *Interpreter) callPseudo(name string, args []value.Value) (value.Value, error) {
	want := 1
	if name == "setglobal" {
		want = 2
	}
	if len(args) != want {
		return nil, diagnostics.Errorf(diagnostics.EArity, name, "%s expects %d arguments, got %d", name, want, len(args))
	}
	key, err := value.AsString(args[0])
	if err != nil {
		return nil, err
	}
	switch name {
	case "varexists":
		return value.NewBool(in.globals.HasLocal(key)), nil
	case "getglobal":
		v, ok := in.globals.Get(key)
		if !ok {
			return nil, diagnostics.Errorf(diagnostics.EUndefinedVar, key, "undefined global '%s'", key)
		}
		return v, nil
	default:
		in.globals.set(key, args[1])
		return args[1], nil
	}
}

func (in *Interpreter) callBuiltin(name string, args []value.Value, span ast.Span) (value.Value, error) {
	in.emit(TraceBuiltin, name, &span)
	v, err := in.opts.Builtins[name](args)
	if err != nil {
		de := diagnostics.As(err)
		if de.Subject == "" {
			de.Subject = name
		}
		if de.Code == diagnostics.ERuntime && !strings.HasPrefix(de.Message, name+":") {
			de.Message = name + ": " + de.Message
		}
		return nil, de.At(span)
	}
	if v == nil {
		v = value.Null{}
	}
	return v, nil
}

// invoke runs a user function or method. this is nil for plain functions.
func (in *Interpreter) invoke(fn *userFn, this value.Value, args []value.Value, span ast.Span) (value.Value, error) {
	if err := in.ctx.Err(); err != nil {
		return nil, diagnostics.Errorf(diagnostics.ECancelled, fn.name, "run cancelled: %v", err).At(span)
	}
	params := fn.decl.Params
	if len(args) != len(params) {
		return nil, diagnostics.Errorf(diagnostics.EArity, fn.name,
			"function '%s' expects %d arguments, got %d", fn.name, len(params), len(args)).At(span)
	}
	if err := in.stack.push(fn.name); err != nil {
		return nil, diagnostics.As(err).At(span)
	}
	defer in.stack.pop()

	in.emit(TraceFnCallStart, fn.name, &span)
	defer in.emit(TraceFnCallEnd, fn.name, &span)

	frame := fn.closure.Child()
	if this != nil {
		frame.set("this", this)
	}
	for i, p := range params {
		name, bound, err := in.validateArg(fn, p, args[i])
		if err != nil {
			return nil, in.annotate(err, p.Span)
		}
		if err := frame.Define(name, bound); err != nil {
			return nil, in.annotate(err, p.Span)
		}
	}

	c, err := in.execBlock(fn.decl.Body, frame)
	if err != nil {
		return nil, err
	}
	if r, ok := c.(returned); ok {
		return r.value, nil
	}
	return value.Null{}, nil
}

// validateArg applies the parameter-name validator convention. A parameter
// named prefix_rest (optionally suffixed "??") is checked against the shape
// "prefix", else the function "type_prefix". A bare name?? uses the whole
// name as the prefix. With "??" a missing validator is an error.
func (in *Interpreter) validateArg(fn *userFn, p ast.Param, arg value.Value) (string, value.Value, error) {
	required := strings.HasSuffix(p.Name, "??")
	name := strings.TrimRight(p.Name, "?")

	if strings.HasPrefix(name, "no_validation") {
		return name, arg, nil
	}
	prefix := ""
	if i := strings.IndexByte(name, '_'); i > 0 {
		prefix = name[:i]
	} else if required {
		prefix = name
	}
	if prefix == "" {
		return name, arg, nil
	}

	if in.opts.Shapes != nil {
		out, errs, found := in.opts.Shapes.ValidateValue(prefix, arg)
		if found {
			in.emit(TraceValidate, prefix, &p.Span)
			if len(errs) > 0 {
				return "", nil, validationError(fn, name, "shape '"+prefix+"'", errs)
			}
			return name, out, nil
		}
	}

	validator := "type_" + prefix
	_, isUser := in.userFns[validator]
	_, isBuiltin := in.opts.Builtins[validator]
	if isUser || isBuiltin {
		in.emit(TraceValidate, validator, &p.Span)
		res, err := in.callByName(validator, []value.Value{arg}, &p.Span)
		if err != nil {
			return "", nil, err
		}
		switch r := res.(type) {
		case value.Bool:
			if !r.Value {
				return "", nil, validationError(fn, name, validator, nil)
			}
		case value.Array:
			if len(r.Items) > 0 {
				e := validationError(fn, name, validator, nil)
				e.Details = r
				return "", nil, e
			}
		default:
			return "", nil, diagnostics.Errorf(diagnostics.EType, validator,
				"validator '%s' must return a bool or an array, got %s", validator, value.TypeName(res))
		}
		return name, arg, nil
	}

	if required {
		return "", nil, diagnostics.Errorf(diagnostics.EValidation, name,
			"no validator for parameter '%s' of '%s': define shape '%s' or function '%s'",
			p.Name, fn.name, prefix, validator)
	}
	return name, arg, nil
}

func validationError(fn *userFn, param, by string, errs []shaping.FieldError) *diagnostics.Error {
	msg := "argument '" + param + "' of '" + fn.name + "' rejected by " + by
	if len(errs) > 0 {
		parts := make([]string, len(errs))
		for i, fe := range errs {
			parts[i] = fe.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	e := diagnostics.Errorf(diagnostics.EValidation, param, "%s", msg)
	if len(errs) > 0 {
		e.Details = errs
	}
	return e
}
