// Package parser implements the dscript recursive-descent parser.
package parser

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/lexer"
)

type parser struct {
	tokens    []lexer.Token
	pos       int
	err       *diagnostics.Error
	loopDepth int
}

// Parse tokenizes source and parses it into an AST. Parsing stops at the
// first error, which is returned as a *diagnostics.Error (E_LEX or E_PARSE).
func Parse(source, filename string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	prog := p.parseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got %s", typ, describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	if p.err != nil {
		return
	}
	p.err = &diagnostics.Error{Diagnostic: diagnostics.MakeDiag(diagnostics.EParse, msg, span, "")}
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	prev := start
	if p.pos > 0 {
		prev = p.tokens[p.pos-1].Span
	}
	return p.spanFromTo(start, prev)
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// plainName rejects identifiers carrying the validator '?' suffix outside
// parameter lists.
func (p *parser) plainName(tok lexer.Token) (string, bool) {
	if strings.HasSuffix(tok.Value, "?") {
		p.addError(fmt.Sprintf("'?' suffix is only allowed on parameter names: '%s'", tok.Value), &tok.Span)
		return "", false
	}
	return tok.Value, true
}

func (p *parser) expectName() (lexer.Token, string, bool) {
	tok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return tok, "", false
	}
	name, ok := p.plainName(tok)
	return tok, name, ok
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFrom(startSpan),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLet:
		if s := p.parseVarStmt(); s != nil {
			return s
		}
	case lexer.TokIf:
		if s := p.parseIf(); s != nil {
			return s
		}
	case lexer.TokWhile:
		if s := p.parseWhile(); s != nil {
			return s
		}
	case lexer.TokFor:
		if s := p.parseFor(); s != nil {
			return s
		}
	case lexer.TokFunction:
		start := p.advance() // consume 'function'
		if s := p.parseFunction(start.Span, false); s != nil {
			return s
		}
	case lexer.TokClass:
		if s := p.parseClass(); s != nil {
			return s
		}
	case lexer.TokReturn:
		if s := p.parseReturn(); s != nil {
			return s
		}
	case lexer.TokBreak:
		if s := p.parseBreak(); s != nil {
			return s
		}
	case lexer.TokLBrace:
		if s := p.parseBlock(); s != nil {
			return s
		}
	default:
		if s := p.parseExprStmt(); s != nil {
			return s
		}
	}
	return nil
}

func (p *parser) parseVarStmt() *ast.VarStmt {
	start := p.advance() // consume 'let'
	_, name, ok := p.expectName()
	if !ok {
		return nil
	}
	var init ast.Expr
	if p.peek() == lexer.TokEquals {
		p.advance()
		init = p.parseExpr()
		if init == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.VarStmt{Span: p.spanFrom(start.Span), Name: name, Init: init}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.ExprStmt{Span: p.spanFrom(expr.NodeSpan()), Expr: expr}
}

func (p *parser) parseBlock() *ast.Block {
	start, ok := p.expect(lexer.TokLBrace)
	if !ok {
		return nil
	}
	stmts := p.parseStmtsUntilBrace()
	if stmts == nil && p.err != nil {
		return nil
	}
	return &ast.Block{Span: p.spanFrom(start.Span), Statements: stmts}
}

// parseStmtsUntilBrace parses statements up to and including the closing '}'.
func (p *parser) parseStmtsUntilBrace() []ast.Stmt {
	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil
	}
	return stmts
}

func (p *parser) parseParenCond() ast.Expr {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	return cond
}

func (p *parser) parseIf() *ast.If {
	start := p.advance() // consume 'if'
	cond := p.parseParenCond()
	if cond == nil {
		return nil
	}
	then := p.parseStmt()
	if then == nil {
		return nil
	}
	var els ast.Stmt
	if p.peek() == lexer.TokElse {
		p.advance()
		els = p.parseStmt()
		if els == nil {
			return nil
		}
	}
	return &ast.If{Span: p.spanFrom(start.Span), Cond: cond, Then: then, Else: els}
}

func (p *parser) parseLoopBody() ast.Stmt {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseStmt()
}

func (p *parser) parseWhile() *ast.While {
	start := p.advance() // consume 'while'
	cond := p.parseParenCond()
	if cond == nil {
		return nil
	}
	body := p.parseLoopBody()
	if body == nil {
		return nil
	}
	return &ast.While{Span: p.spanFrom(start.Span), Cond: cond, Body: body}
}

// parseFor desugars `for (init; cond; inc) body` into
// `{ init; while (cond) { body; inc; } }`.
func (p *parser) parseFor() *ast.Block {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var init ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokLet:
		v := p.parseVarStmt()
		if v == nil {
			return nil
		}
		init = v
	default:
		e := p.parseExprStmt()
		if e == nil {
			return nil
		}
		init = e
	}

	var cond ast.Expr
	if p.peek() != lexer.TokSemicolon {
		cond = p.parseExpr()
		if cond == nil {
			return nil
		}
	}
	semi, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	if cond == nil {
		cond = &ast.Literal{Span: semi.Span, Lit: ast.LitBool, Bool: true}
	}

	var inc ast.Expr
	if p.peek() != lexer.TokRParen {
		inc = p.parseExpr()
		if inc == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body := p.parseLoopBody()
	if body == nil {
		return nil
	}

	loopStmts := []ast.Stmt{body}
	if inc != nil {
		loopStmts = append(loopStmts, &ast.ExprStmt{Span: inc.NodeSpan(), Expr: inc})
	}
	span := p.spanFrom(start.Span)
	loop := &ast.While{
		Span: span,
		Cond: cond,
		Body: &ast.Block{Span: body.NodeSpan(), Statements: loopStmts},
	}

	var outer []ast.Stmt
	if init != nil {
		outer = append(outer, init)
	}
	outer = append(outer, loop)
	return &ast.Block{Span: span, Statements: outer}
}

// parseFunction parses the remainder of a function or method declaration
// after its introducing keyword. Methods may use a dotted name
// (`def Point.move(...)`); only the last segment is kept.
func (p *parser) parseFunction(start ast.Span, method bool) *ast.FunctionStmt {
	_, name, ok := p.expectName()
	if !ok {
		return nil
	}
	for method && p.peek() == lexer.TokDot {
		p.advance()
		if _, name, ok = p.expectName(); !ok {
			return nil
		}
	}

	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	var params []ast.Param
	for p.peek() != lexer.TokRParen {
		tok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		params = append(params, ast.Param{Span: tok.Span, Name: tok.Value})
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil
	}
	// break never crosses a function boundary
	saved := p.loopDepth
	p.loopDepth = 0
	body := p.parseStmtsUntilBrace()
	p.loopDepth = saved
	if body == nil && p.err != nil {
		return nil
	}

	return &ast.FunctionStmt{
		Span:   p.spanFrom(start),
		Name:   name,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseClass() *ast.ClassStmt {
	start := p.advance() // consume 'class'
	_, name, ok := p.expectName()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil
	}
	var methods []*ast.FunctionStmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		if p.peek() != lexer.TokDef {
			tok := p.current()
			p.addError(fmt.Sprintf("class body may only contain 'def' methods, got %s", describe(tok)), &tok.Span)
			return nil
		}
		def := p.advance()
		m := p.parseFunction(def.Span, true)
		if m == nil {
			return nil
		}
		methods = append(methods, m)
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil
	}
	return &ast.ClassStmt{Span: p.spanFrom(start.Span), Name: name, Methods: methods}
}

func (p *parser) parseReturn() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	var value ast.Expr
	if p.peek() != lexer.TokSemicolon {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.ReturnStmt{Span: p.spanFrom(start.Span), Value: value}
}

func (p *parser) parseBreak() *ast.BreakStmt {
	start := p.advance() // consume 'break'
	if p.loopDepth == 0 {
		p.addError("'break' outside of a loop", &start.Span)
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}
	return &ast.BreakStmt{Span: p.spanFrom(start.Span)}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	target := p.parseOr()
	if target == nil {
		return nil
	}
	if p.peek() != lexer.TokEquals {
		return target
	}
	eq := p.advance()
	value := p.parseAssignment()
	if value == nil {
		return nil
	}
	span := p.spanFromTo(target.NodeSpan(), value.NodeSpan())
	switch t := target.(type) {
	case *ast.Variable:
		return &ast.Assign{Span: span, Name: t.Name, Value: value}
	case *ast.Index:
		return &ast.SetIndex{Span: span, Object: t.Object, Index: t.Index, Value: value}
	default:
		p.addError("invalid assignment target", &eq.Span)
		return nil
	}
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for {
		var op ast.LogicalOp
		switch p.peek() {
		case lexer.TokOrOr:
			op = ast.OpOr
		case lexer.TokQuestion:
			op = ast.OpCoalesce
		default:
			return left
		}
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.Logical{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokAndAnd {
		p.advance()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &ast.Logical{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

// binaryLevel parses one left-associative precedence level.
func (p *parser) binaryLevel(next func() ast.Expr, ops map[lexer.TokenType]ast.BinaryOp) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}
	for {
		op, ok := ops[p.peek()]
		if !ok {
			return left
		}
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.Binary{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

var (
	equalityOps   = map[lexer.TokenType]ast.BinaryOp{lexer.TokEqEq: ast.OpEqEq, lexer.TokBangEq: ast.OpNeq}
	comparisonOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokGt: ast.OpGt, lexer.TokLt: ast.OpLt, lexer.TokGtEq: ast.OpGtEq, lexer.TokLtEq: ast.OpLtEq,
	}
	termOps   = map[lexer.TokenType]ast.BinaryOp{lexer.TokPlus: ast.OpAdd, lexer.TokMinus: ast.OpSub}
	factorOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokStar: ast.OpMul, lexer.TokSlash: ast.OpDiv, lexer.TokPercent: ast.OpMod,
	}
)

func (p *parser) parseEquality() ast.Expr {
	return p.binaryLevel(p.parseComparison, equalityOps)
}

func (p *parser) parseComparison() ast.Expr {
	return p.binaryLevel(p.parseTerm, comparisonOps)
}

func (p *parser) parseTerm() ast.Expr {
	return p.binaryLevel(p.parseFactor, termOps)
}

func (p *parser) parseFactor() ast.Expr {
	return p.binaryLevel(p.parseUnary, factorOps)
}

func (p *parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parseCall()
	}
	start := p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.Unary{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		switch p.peek() {
		case lexer.TokLParen:
			v, ok := expr.(*ast.Variable)
			if !ok {
				tok := p.current()
				p.addError("only named functions can be called", &tok.Span)
				return nil
			}
			args, ok := p.parseArgs()
			if !ok {
				return nil
			}
			expr = &ast.Call{Span: p.spanFrom(v.Span), Callee: v.Name, Args: args}

		case lexer.TokDot:
			p.advance()
			_, name, ok := p.expectName()
			if !ok {
				return nil
			}
			if p.peek() != lexer.TokLParen {
				tok := p.current()
				p.addError(fmt.Sprintf("expected '(' after method name '%s'", name), &tok.Span)
				return nil
			}
			args, ok := p.parseArgs()
			if !ok {
				return nil
			}
			expr = &ast.MethodCall{Span: p.spanFrom(expr.NodeSpan()), Object: expr, Method: name, Args: args}

		case lexer.TokLBracket:
			p.advance()
			idx := p.parseExpr()
			if idx == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokRBracket); !ok {
				return nil
			}
			expr = &ast.Index{Span: p.spanFrom(expr.NodeSpan()), Object: expr, Index: idx}

		default:
			return expr
		}
	}
}

// parseArgs parses `( [**]expr, ... )`.
func (p *parser) parseArgs() ([]ast.Arg, bool) {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil, false
	}
	var args []ast.Arg
	for p.peek() != lexer.TokRParen {
		spread := false
		if p.peek() == lexer.TokStarStar {
			p.advance()
			spread = true
		}
		e := p.parseExpr()
		if e == nil {
			return nil, false
		}
		args = append(args, ast.Arg{Expr: e, Spread: spread})
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil, false
	}
	return args, true
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokLBrace:
		if m := p.parseMapLiteral(); m != nil {
			return m
		}
		return nil

	case lexer.TokLBracket:
		if a := p.parseArrayLiteral(); a != nil {
			return a
		}
		return nil

	case lexer.TokNumber:
		tok := p.advance()
		return &ast.Literal{Span: tok.Span, Lit: ast.LitNumber, Number: tok.Number}

	case lexer.TokString:
		tok := p.advance()
		return &ast.Literal{Span: tok.Span, Lit: ast.LitString, Str: tok.Value}

	case lexer.TokTrue, lexer.TokFalse:
		tok := p.advance()
		return &ast.Literal{Span: tok.Span, Lit: ast.LitBool, Bool: tok.Type == lexer.TokTrue}

	case lexer.TokNull:
		tok := p.advance()
		return &ast.Literal{Span: tok.Span, Lit: ast.LitNull}

	case lexer.TokNew:
		if n := p.parseNew(); n != nil {
			return n
		}
		return nil

	case lexer.TokIdent:
		tok := p.advance()
		name, ok := p.plainName(tok)
		if !ok {
			return nil
		}
		return &ast.Variable{Span: tok.Span, Name: name}

	default:
		tok := p.current()
		p.addError(fmt.Sprintf("unexpected %s", describe(tok)), &tok.Span)
		return nil
	}
}

func (p *parser) parseNew() *ast.New {
	start := p.advance() // consume 'new'
	_, name, ok := p.expectName()
	if !ok {
		return nil
	}
	args, ok := p.parseArgs()
	if !ok {
		return nil
	}
	return &ast.New{Span: p.spanFrom(start.Span), Class: name, Args: args}
}

func (p *parser) parseMapLiteral() *ast.MapLiteral {
	start := p.advance() // consume '{'
	var entries []ast.MapEntry
	for p.peek() != lexer.TokRBrace {
		keyTok := p.current()
		var key string
		switch keyTok.Type {
		case lexer.TokString:
			key = keyTok.Value
		case lexer.TokIdent:
			var ok bool
			if key, ok = p.plainName(keyTok); !ok {
				return nil
			}
		default:
			p.addError(fmt.Sprintf("expected map key, got %s", describe(keyTok)), &keyTok.Span)
			return nil
		}
		p.advance()
		if _, ok := p.expect(lexer.TokColon); !ok {
			return nil
		}
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		entries = append(entries, ast.MapEntry{
			Span:  p.spanFromTo(keyTok.Span, value.NodeSpan()),
			Key:   key,
			Value: value,
		})
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil
	}
	return &ast.MapLiteral{Span: p.spanFrom(start.Span), Entries: entries}
}

func (p *parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := p.advance() // consume '['
	var elems []ast.Expr
	for p.peek() != lexer.TokRBracket {
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		elems = append(elems, e)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRBracket); !ok {
		return nil
	}
	return &ast.ArrayLiteral{Span: p.spanFrom(start.Span), Elements: elems}
}
