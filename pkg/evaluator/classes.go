package evaluator

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

// mintInstance allocates a fresh, empty instance of c. Ids are name-based
// UUIDs over a run-local counter, so the same script always yields the same
// ids.
func (in *Interpreter) mintInstance(c *class) value.Instance {
	for {
		in.instSeq++
		seed := c.name + "#" + strconv.FormatUint(in.instSeq, 10)
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
		inst := value.Instance{ClassName: c.name, UUID: id}
		if _, taken := in.instances[inst.Key()]; taken {
			continue
		}
		in.putInstance(inst.Key(), value.NewMap())
		return inst
	}
}

func (in *Interpreter) putInstance(key string, state value.Map) {
	if _, ok := in.instances[key]; !ok {
		in.instOrder = append(in.instOrder, key)
	}
	in.instances[key] = state
}

func (in *Interpreter) instanceState(inst value.Instance) (value.Map, error) {
	state, ok := in.instances[inst.Key()]
	if !ok {
		return value.Map{}, diagnostics.Errorf(diagnostics.EUndefinedVar, inst.Key(), "unknown instance '%s'", inst.Key())
	}
	return state, nil
}

func (in *Interpreter) evalNew(e *ast.New) (value.Value, error) {
	c, ok := in.classes[e.Class]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.EUndefinedVar, e.Class, "undefined class '%s'", e.Class).At(e.Span)
	}
	args, err := in.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}

	inst := in.mintInstance(c)
	in.emit(TraceNew, inst.Key(), &e.Span)

	if initFn, ok := c.methods["init"]; ok {
		if _, err := in.invoke(initFn, inst, args, e.Span); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, diagnostics.Errorf(diagnostics.EArity, e.Class,
			"class '%s' has no init method but was given %d arguments", e.Class, len(args)).At(e.Span)
	}
	return inst, nil
}

func (in *Interpreter) evalMethodCall(e *ast.MethodCall) (value.Value, error) {
	obj, err := in.eval(e.Object)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(value.Instance)
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.EType, e.Method,
			"cannot call method '%s' on %s", e.Method, value.TypeName(obj)).At(e.Span)
	}
	c, ok := in.classes[inst.ClassName]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.EUndefinedVar, inst.ClassName,
			"undefined class '%s'", inst.ClassName).At(e.Span)
	}
	m, ok := c.methods[e.Method]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.EUndefinedFn, e.Method,
			"class '%s' has no method '%s'", c.name, e.Method).At(e.Span)
	}
	args, err := in.evalArgs(e.Args)
	if err != nil {
		return nil, err
	}
	return in.invoke(m, inst, args, e.Span)
}
