// Package evaluator implements the dscript tree-walking interpreter.
package evaluator

import (
	"context"
	"strings"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/shaping"
	"github.com/thomasrohde/dscript/pkg/value"
)

// BuiltinFunc is a host-provided function callable from scripts.
type BuiltinFunc func(args []value.Value) (value.Value, error)

// Options configures an Interpreter.
type Options struct {
	Builtins     map[string]BuiltinFunc
	Shapes       *shaping.Registry
	Mode         Mode
	MaxCallDepth int
	Trace        func(TraceEvent)
}

type userFn struct {
	name    string
	decl    *ast.FunctionStmt
	closure *Env
}

type class struct {
	name    string
	order   []string
	methods map[string]*userFn
}

func (c *class) value() value.Value {
	return value.Class{Name: c.name, Methods: append([]string(nil), c.order...)}
}

// Interpreter executes parsed programs. One Interpreter serves one run: the
// global scope, declared functions, classes and instance state persist
// between Execute and any later CallFunction.
type Interpreter struct {
	opts Options
	ctx  context.Context

	globals *Env
	env     *Env

	userFns   map[string]*userFn
	classes   map[string]*class
	instances map[string]value.Map
	instOrder []string
	instSeq   uint64

	stack    callStack
	traceSeq int
}

// New creates an Interpreter with an empty global scope.
func New(opts Options) *Interpreter {
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	if opts.Builtins == nil {
		opts.Builtins = map[string]BuiltinFunc{}
	}
	globals := NewEnv(nil)
	return &Interpreter{
		opts:      opts,
		ctx:       context.Background(),
		globals:   globals,
		env:       globals,
		userFns:   make(map[string]*userFn),
		classes:   make(map[string]*class),
		instances: make(map[string]value.Map),
		stack:     callStack{max: opts.MaxCallDepth},
	}
}

// Seed binds the entries of initial in the global scope. Keys of the form
// "Class.uuid" restore instance state instead.
func (in *Interpreter) Seed(initial value.Map) error {
	for _, kv := range initial.Pairs() {
		if strings.Contains(kv.Key, ".") {
			state, ok := kv.Value.(value.Map)
			if !ok {
				return diagnostics.Errorf(diagnostics.EType, kv.Key,
					"instance state '%s' must be a map, got %s", kv.Key, value.TypeName(kv.Value))
			}
			in.putInstance(kv.Key, state.DeepCopy())
			continue
		}
		if err := in.globals.Define(kv.Key, value.DeepCopy(kv.Value)); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs every top-level statement of prog in the global scope.
func (in *Interpreter) Execute(ctx context.Context, prog *ast.Program) error {
	in.ctx = ctx
	span := prog.Span
	in.emit(TraceRunStart, "", &span)
	defer in.emit(TraceRunEnd, "", &span)

	_, err := in.execStmts(prog.Statements)
	return err
}

// Snapshot returns a deep copy of the global bindings in definition order,
// followed by the state of every instance created or seeded in this run.
func (in *Interpreter) Snapshot() value.Map {
	snap := in.globals.Snapshot()
	for _, k := range in.instOrder {
		snap.Set(k, in.instances[k].DeepCopy())
	}
	return snap
}

// HasFunction reports whether a user function name has been declared.
func (in *Interpreter) HasFunction(name string) bool {
	_, ok := in.userFns[name]
	return ok
}

// CallFunction invokes a declared user function or builtin by name.
func (in *Interpreter) CallFunction(ctx context.Context, name string, args []value.Value) (value.Value, error) {
	in.ctx = ctx
	return in.callByName(name, args, nil)
}

// Unwind discards any partially executed call frames after a failed run so
// the interpreter can be used again from the global scope.
func (in *Interpreter) Unwind() {
	in.env = in.globals
	in.stack.frames = in.stack.frames[:0]
}

// CurrentFunction returns the innermost executing user function, or "".
func (in *Interpreter) CurrentFunction() string {
	return in.stack.current()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// completion is the outcome of executing a statement.
type completion interface{ completion() }

type normal struct{}

type returned struct{ value value.Value }

type broke struct{}

func (normal) completion()   {}
func (returned) completion() {}
func (broke) completion()    {}

func (in *Interpreter) execStmts(stmts []ast.Stmt) (completion, error) {
	for _, stmt := range stmts {
		c, err := in.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		if _, ok := c.(normal); !ok {
			return c, nil
		}
	}
	return normal{}, nil
}

func (in *Interpreter) execStmt(stmt ast.Stmt) (completion, error) {
	if err := in.ctx.Err(); err != nil {
		return nil, diagnostics.Errorf(diagnostics.ECancelled, "", "run cancelled: %v", err).At(stmt.NodeSpan())
	}
	c, err := in.execStmtInner(stmt)
	if err != nil {
		return nil, in.annotate(err, stmt.NodeSpan())
	}
	return c, nil
}

func (in *Interpreter) execStmtInner(stmt ast.Stmt) (completion, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if _, err := in.eval(s.Expr); err != nil {
			return nil, err
		}
		return normal{}, nil

	case *ast.VarStmt:
		var val value.Value = value.Null{}
		if s.Init != nil {
			v, err := in.eval(s.Init)
			if err != nil {
				return nil, err
			}
			val = v
		}
		if err := in.env.Define(s.Name, val); err != nil {
			return nil, err
		}
		return normal{}, nil

	case *ast.Block:
		return in.execBlock(s.Statements, in.env.Child())

	case *ast.If:
		cond, err := in.eval(s.Cond)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return in.execStmt(s.Then)
		}
		if s.Else != nil {
			return in.execStmt(s.Else)
		}
		return normal{}, nil

	case *ast.While:
		for {
			cond, err := in.eval(s.Cond)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(cond) {
				return normal{}, nil
			}
			c, err := in.execStmt(s.Body)
			if err != nil {
				return nil, err
			}
			switch c.(type) {
			case broke:
				return normal{}, nil
			case returned:
				return c, nil
			}
		}

	case *ast.FunctionStmt:
		return normal{}, in.declareFunction(s)

	case *ast.ClassStmt:
		return normal{}, in.declareClass(s)

	case *ast.ReturnStmt:
		var val value.Value = value.Null{}
		if s.Value != nil {
			v, err := in.eval(s.Value)
			if err != nil {
				return nil, err
			}
			val = v
		}
		return returned{value: val}, nil

	case *ast.BreakStmt:
		return broke{}, nil
	}
	return nil, diagnostics.Errorf(diagnostics.ERuntime, "", "unsupported statement %s", stmt.Kind())
}

// execBlock runs stmts in scope, restoring the current scope afterwards.
func (in *Interpreter) execBlock(stmts []ast.Stmt, scope *Env) (completion, error) {
	prev := in.env
	in.env = scope
	defer func() { in.env = prev }()
	return in.execStmts(stmts)
}

// annotate attaches the span and the executing function to err.
func (in *Interpreter) annotate(err error, span ast.Span) error {
	de := diagnostics.As(err)
	de.At(span)
	if de.Function == "" {
		de.Function = in.stack.current()
	}
	return de
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

var pseudoBuiltins = map[string]bool{
	"varexists": true,
	"getglobal": true,
	"setglobal": true,
	"call":      true,
}

func (in *Interpreter) declareFunction(s *ast.FunctionStmt) error {
	if pseudoBuiltins[s.Name] {
		return diagnostics.Errorf(diagnostics.EShadowBuiltin, s.Name, "cannot declare function '%s': reserved name", s.Name)
	}
	if _, ok := in.opts.Builtins[s.Name]; ok {
		return diagnostics.Errorf(diagnostics.EShadowBuiltin, s.Name, "cannot declare function '%s': shadows a builtin", s.Name)
	}
	if prev, ok := in.userFns[s.Name]; ok {
		// Re-running the same declaration (a nested function in a body that
		// runs again) rebinds it to the new scope.
		if prev.decl != s {
			return diagnostics.Errorf(diagnostics.EFnDup, s.Name, "function '%s' is already declared", s.Name)
		}
	}
	in.userFns[s.Name] = &userFn{name: s.Name, decl: s, closure: in.env}
	return nil
}

func (in *Interpreter) declareClass(s *ast.ClassStmt) error {
	if _, ok := in.classes[s.Name]; ok {
		return diagnostics.Errorf(diagnostics.EClassDup, s.Name, "class '%s' is already declared", s.Name)
	}
	c := &class{name: s.Name, methods: make(map[string]*userFn, len(s.Methods))}
	for _, m := range s.Methods {
		if _, dup := c.methods[m.Name]; dup {
			return diagnostics.Errorf(diagnostics.EMethodDup, m.Name,
				"method '%s' is declared twice in class '%s'", m.Name, s.Name).At(m.Span)
		}
		c.methods[m.Name] = &userFn{name: s.Name + "." + m.Name, decl: m, closure: in.env}
		c.order = append(c.order, m.Name)
	}
	in.classes[s.Name] = c
	return nil
}
