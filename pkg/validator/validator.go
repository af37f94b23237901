// Package validator implements static checks of dscript programs.
package validator

import (
	"fmt"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// pseudoBuiltins are resolved by the interpreter itself and can never be
// redeclared.
var pseudoBuiltins = map[string]bool{
	"varexists": true,
	"getglobal": true,
	"setglobal": true,
	"call":      true,
}

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

func (s *scope) hasLocal(name string) bool {
	return s.bindings[name]
}

type validator struct {
	diags    []diagnostics.Diagnostic
	builtins map[string]bool

	// declared holds functions declared so far in execution order.
	declared map[string]bool
	// names holds every function, variable and parameter name in the
	// program; calls inside function bodies resolve at call time.
	names   map[string]bool
	classes map[string]bool
	inFn    int
}

// Validate performs static analysis on a dscript program. builtins names the
// host functions available at run time.
//
// Reported: calls to functions that are neither builtins nor declared before
// use at top level, duplicate function declarations, functions shadowing a
// builtin, duplicate classes, duplicate methods and `let` redeclarations in
// the same scope.
func Validate(program *ast.Program, builtins map[string]bool) []diagnostics.Diagnostic {
	v := &validator{
		builtins: builtins,
		declared: make(map[string]bool),
		names:    make(map[string]bool),
		classes:  make(map[string]bool),
	}
	if v.builtins == nil {
		v.builtins = map[string]bool{}
	}
	collectNames(program.Statements, v.names)
	v.validateStatements(program.Statements, newScope(nil))
	return v.diags
}

func (v *validator) addDiag(code, msg string, span *ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, hint))
}

// collectNames records every declared name, at any depth.
func collectNames(stmts []ast.Stmt, names map[string]bool) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VarStmt:
			names[s.Name] = true
		case *ast.FunctionStmt:
			names[s.Name] = true
			for _, p := range s.Params {
				names[paramName(p.Name)] = true
			}
			collectNames(s.Body, names)
		case *ast.ClassStmt:
			for _, m := range s.Methods {
				collectNames([]ast.Stmt{m}, names)
			}
		case *ast.Block:
			collectNames(s.Statements, names)
		case *ast.If:
			collectNames([]ast.Stmt{s.Then}, names)
			if s.Else != nil {
				collectNames([]ast.Stmt{s.Else}, names)
			}
		case *ast.While:
			collectNames([]ast.Stmt{s.Body}, names)
		}
	}
}

func paramName(name string) string {
	for len(name) > 0 && name[len(name)-1] == '?' {
		name = name[:len(name)-1]
	}
	return name
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.VarStmt:
		if sc.hasLocal(s.Name) {
			span := s.Span
			v.addDiag(diagnostics.ERedeclared, fmt.Sprintf("variable '%s' is already declared in this scope", s.Name), &span,
				"assign with '"+s.Name+" = ...' instead")
		}
		v.validateExpr(s.Init, sc)
		sc.add(s.Name)

	case *ast.ExprStmt:
		v.validateExpr(s.Expr, sc)

	case *ast.ReturnStmt:
		v.validateExpr(s.Value, sc)

	case *ast.BreakStmt:

	case *ast.Block:
		v.validateStatements(s.Statements, newScope(sc))

	case *ast.If:
		v.validateExpr(s.Cond, sc)
		v.validateStmt(s.Then, sc)
		if s.Else != nil {
			v.validateStmt(s.Else, sc)
		}

	case *ast.While:
		v.validateExpr(s.Cond, sc)
		v.validateStmt(s.Body, sc)

	case *ast.FunctionStmt:
		v.declareFunction(s)
		v.validateFunction(s, sc)

	case *ast.ClassStmt:
		if v.classes[s.Name] {
			span := s.Span
			v.addDiag(diagnostics.EClassDup, fmt.Sprintf("duplicate class '%s'", s.Name), &span, "")
		}
		v.classes[s.Name] = true
		methods := make(map[string]bool)
		for _, m := range s.Methods {
			if methods[m.Name] {
				span := m.Span
				v.addDiag(diagnostics.EMethodDup, fmt.Sprintf("duplicate method '%s' in class '%s'", m.Name, s.Name), &span, "")
			}
			methods[m.Name] = true
			v.validateFunction(m, sc)
		}
	}
}

func (v *validator) declareFunction(fn *ast.FunctionStmt) {
	span := fn.Span
	switch {
	case pseudoBuiltins[fn.Name] || v.builtins[fn.Name]:
		v.addDiag(diagnostics.EShadowBuiltin, fmt.Sprintf("function '%s' conflicts with a builtin", fn.Name), &span,
			"choose a different function name")
	case v.declared[fn.Name]:
		v.addDiag(diagnostics.EFnDup, fmt.Sprintf("duplicate function '%s'", fn.Name), &span, "")
	}
	v.declared[fn.Name] = true
}

func (v *validator) validateFunction(fn *ast.FunctionStmt, sc *scope) {
	fnScope := newScope(sc)
	fnScope.add("this")
	for _, p := range fn.Params {
		name := paramName(p.Name)
		if fnScope.hasLocal(name) && name != "this" {
			span := p.Span
			v.addDiag(diagnostics.ERedeclared, fmt.Sprintf("duplicate parameter '%s'", name), &span, "")
		}
		fnScope.add(name)
	}
	v.inFn++
	v.validateStatements(fn.Body, fnScope)
	v.inFn--
}

func (v *validator) validateArgs(args []ast.Arg, sc *scope) {
	for _, a := range args {
		v.validateExpr(a.Expr, sc)
	}
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.Literal, *ast.Variable:
		// variables may come from the host's initial environment

	case *ast.MapLiteral:
		for _, en := range e.Entries {
			v.validateExpr(en.Value, sc)
		}

	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			v.validateExpr(el, sc)
		}

	case *ast.Assign:
		v.validateExpr(e.Value, sc)

	case *ast.Binary:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.Logical:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.Unary:
		v.validateExpr(e.Operand, sc)

	case *ast.Call:
		v.checkCallee(e, sc)
		v.validateArgs(e.Args, sc)

	case *ast.MethodCall:
		v.validateExpr(e.Object, sc)
		v.validateArgs(e.Args, sc)

	case *ast.New:
		v.validateArgs(e.Args, sc)

	case *ast.Index:
		v.validateExpr(e.Object, sc)
		v.validateExpr(e.Index, sc)

	case *ast.SetIndex:
		v.validateExpr(e.Object, sc)
		v.validateExpr(e.Index, sc)
		v.validateExpr(e.Value, sc)
	}
}

func (v *validator) checkCallee(call *ast.Call, sc *scope) {
	name := call.Callee
	if pseudoBuiltins[name] || v.builtins[name] || v.declared[name] || sc.has(name) {
		return
	}
	if v.inFn > 0 && v.names[name] {
		return
	}
	span := call.Span
	hint := ""
	if v.names[name] {
		hint = "functions are not hoisted; declare '" + name + "' before this call"
	}
	v.addDiag(diagnostics.EUndefinedFn, fmt.Sprintf("undefined function '%s'", name), &span, hint)
}
