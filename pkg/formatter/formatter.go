// Package formatter implements the dscript source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/dscript/pkg/ast"
)

const indent = "  "

// maxInline is the widest map or array literal kept on one line.
const maxInline = 72

// Precedence levels (higher = tighter binding).
const (
	precAssign = iota
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
)

var binaryPrec = map[ast.BinaryOp]int{
	ast.OpEqEq: precEquality, ast.OpNeq: precEquality,
	ast.OpGt: precComparison, ast.OpLt: precComparison, ast.OpGtEq: precComparison, ast.OpLtEq: precComparison,
	ast.OpAdd: precTerm, ast.OpSub: precTerm,
	ast.OpMul: precFactor, ast.OpDiv: precFactor, ast.OpMod: precFactor,
}

func exprPrec(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.Assign, *ast.SetIndex:
		return precAssign
	case *ast.Logical:
		if x.Op == ast.OpAnd {
			return precAnd
		}
		return precOr
	case *ast.Binary:
		return binaryPrec[x.Op]
	case *ast.Unary:
		return precUnary
	}
	return precCall
}

// Format pretty-prints a dscript AST back to source code.
func Format(program *ast.Program) string {
	var b strings.Builder
	for i, s := range program.Statements {
		if i > 0 && (isDecl(s) || isDecl(program.Statements[i-1])) {
			b.WriteByte('\n')
		}
		writeStmt(&b, s, 0)
	}
	return b.String()
}

func isDecl(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.FunctionStmt, *ast.ClassStmt:
		return true
	}
	return false
}

func writeStmt(b *strings.Builder, s ast.Stmt, depth int) {
	b.WriteString(strings.Repeat(indent, depth))
	writeStmtBody(b, s, depth)
	b.WriteByte('\n')
}

// writeStmtBody writes s without leading indentation or trailing newline.
func writeStmtBody(b *strings.Builder, s ast.Stmt, depth int) {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		out := formatExpr(stmt.Expr, depth, precAssign)
		if startsWithBrace(stmt.Expr) {
			out = "(" + out + ")"
		}
		b.WriteString(out + ";")
	case *ast.VarStmt:
		b.WriteString("let " + stmt.Name)
		if stmt.Init != nil {
			b.WriteString(" = " + formatExpr(stmt.Init, depth, precAssign))
		}
		b.WriteString(";")
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			b.WriteString("return;")
			return
		}
		b.WriteString("return " + formatExpr(stmt.Value, depth, precAssign) + ";")
	case *ast.BreakStmt:
		b.WriteString("break;")
	case *ast.Block:
		writeBraced(b, stmt.Statements, depth)
	case *ast.If:
		b.WriteString("if (" + formatExpr(stmt.Cond, depth, precAssign) + ") ")
		writeBody(b, stmt.Then, depth)
		if stmt.Else != nil {
			if _, braced := stmt.Then.(*ast.Block); braced {
				b.WriteString(" else")
			} else {
				b.WriteString("\n" + strings.Repeat(indent, depth) + "else")
			}
			switch els := stmt.Else.(type) {
			case *ast.If, *ast.Block:
				b.WriteByte(' ')
				if elif, ok := els.(*ast.If); ok {
					writeStmtBody(b, elif, depth)
				} else {
					writeBody(b, els, depth)
				}
			default:
				writeBody(b, els, depth)
			}
		}
	case *ast.While:
		b.WriteString("while (" + formatExpr(stmt.Cond, depth, precAssign) + ") ")
		writeBody(b, stmt.Body, depth)
	case *ast.FunctionStmt:
		writeFunction(b, "function ", stmt, depth)
	case *ast.ClassStmt:
		b.WriteString("class " + stmt.Name + " {\n")
		for i, m := range stmt.Methods {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.Repeat(indent, depth+1))
			writeFunction(b, "def ", m, depth+1)
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indent, depth) + "}")
	}
}

// writeBody writes a loop or branch body: blocks inline, single statements
// on their own indented line.
func writeBody(b *strings.Builder, s ast.Stmt, depth int) {
	if blk, ok := s.(*ast.Block); ok {
		writeBraced(b, blk.Statements, depth)
		return
	}
	b.WriteString("\n" + strings.Repeat(indent, depth+1))
	writeStmtBody(b, s, depth+1)
}

func writeBraced(b *strings.Builder, stmts []ast.Stmt, depth int) {
	if len(stmts) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{\n")
	for _, s := range stmts {
		writeStmt(b, s, depth+1)
	}
	b.WriteString(strings.Repeat(indent, depth) + "}")
}

func writeFunction(b *strings.Builder, keyword string, fn *ast.FunctionStmt, depth int) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	b.WriteString(keyword + fn.Name + "(" + strings.Join(params, ", ") + ") ")
	writeBraced(b, fn.Body, depth)
}

// startsWithBrace reports whether e prints with a leading map literal, which
// would otherwise parse as a block at statement start.
func startsWithBrace(e ast.Expr) bool {
	for {
		switch x := e.(type) {
		case *ast.MapLiteral:
			return true
		case *ast.Index:
			e = x.Object
		case *ast.SetIndex:
			e = x.Object
		case *ast.MethodCall:
			e = x.Object
		case *ast.Binary:
			e = x.Left
		case *ast.Logical:
			e = x.Left
		default:
			return false
		}
	}
}

// formatExpr formats e in a context that binds at least as tight as min.
func formatExpr(e ast.Expr, depth, min int) string {
	out := formatBare(e, depth)
	if exprPrec(e) < min {
		return "(" + out + ")"
	}
	return out
}

func formatBare(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.Literal:
		return formatLiteral(expr)
	case *ast.Variable:
		return expr.Name
	case *ast.Assign:
		return expr.Name + " = " + formatExpr(expr.Value, depth, precAssign)
	case *ast.SetIndex:
		return formatExpr(expr.Object, depth, precCall) + "[" + formatExpr(expr.Index, depth, precAssign) + "] = " +
			formatExpr(expr.Value, depth, precAssign)
	case *ast.Binary:
		p := binaryPrec[expr.Op]
		// Left-associative: an equal-precedence right operand needs parens.
		return formatExpr(expr.Left, depth, p) + " " + string(expr.Op) + " " + formatExpr(expr.Right, depth, p+1)
	case *ast.Logical:
		p := exprPrec(expr)
		return formatExpr(expr.Left, depth, p) + " " + string(expr.Op) + " " + formatExpr(expr.Right, depth, p+1)
	case *ast.Unary:
		operand := formatExpr(expr.Operand, depth, precUnary)
		if u, ok := expr.Operand.(*ast.Unary); ok && u.Op == expr.Op {
			operand = "(" + operand + ")"
		}
		return string(expr.Op) + operand
	case *ast.Call:
		return expr.Callee + formatArgs(expr.Args, depth)
	case *ast.MethodCall:
		return formatExpr(expr.Object, depth, precCall) + "." + expr.Method + formatArgs(expr.Args, depth)
	case *ast.New:
		return "new " + expr.Class + formatArgs(expr.Args, depth)
	case *ast.Index:
		return formatExpr(expr.Object, depth, precCall) + "[" + formatExpr(expr.Index, depth, precAssign) + "]"
	case *ast.ArrayLiteral:
		parts := make([]string, len(expr.Elements))
		for i, el := range expr.Elements {
			parts[i] = formatExpr(el, depth+1, precAssign)
		}
		return wrapList("[", "]", parts, depth)
	case *ast.MapLiteral:
		parts := make([]string, len(expr.Entries))
		for i, en := range expr.Entries {
			parts[i] = `"` + en.Key + `": ` + formatExpr(en.Value, depth+1, precAssign)
		}
		return wrapList("{", "}", parts, depth)
	}
	return ""
}

func formatArgs(args []ast.Arg, depth int) string {
	parts := make([]string, len(args))
	for i, a := range args {
		s := formatExpr(a.Expr, depth, precAssign)
		if a.Spread {
			s = "**" + s
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// wrapList keeps short literals on one line and puts one element per line
// otherwise.
func wrapList(open, close string, parts []string, depth int) string {
	if len(parts) == 0 {
		return open + close
	}
	inline := open + strings.Join(parts, ", ") + close
	if len(inline) <= maxInline && !strings.Contains(inline, "\n") {
		return inline
	}
	inner := strings.Repeat(indent, depth+1)
	outer := strings.Repeat(indent, depth)
	return open + "\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + outer + close
}

func formatLiteral(l *ast.Literal) string {
	switch l.Lit {
	case ast.LitNumber:
		return strconv.FormatFloat(l.Number, 'g', -1, 64)
	case ast.LitString:
		// Strings have no escapes; the lexer copies raw text up to the next quote.
		return `"` + l.Str + `"`
	case ast.LitBool:
		if l.Bool {
			return "true"
		}
		return "false"
	}
	return "null"
}

// HasComments reports whether source contains a line comment outside a
// string literal. Comments are not kept by Format.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		switch c := source[i]; {
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(source) && source[i+1] == '/':
			return true
		}
	}
	return false
}
