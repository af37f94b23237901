// Package lexer implements the dscript tokenizer.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokLet TokenType = iota
	TokIf
	TokElse
	TokWhile
	TokFor
	TokTrue
	TokFalse
	TokNull
	TokFunction
	TokClass
	TokDef
	TokNew
	TokReturn
	TokBreak

	// Literals
	TokNumber
	TokString

	// Identifiers (may end in one or more '?')
	TokIdent

	// Punctuation
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokLParen    // (
	TokRParen    // )
	TokColon     // :
	TokSemicolon // ;
	TokComma     // ,
	TokDot       // .
	TokEquals    // =

	// Comparison operators
	TokGtEq   // >=
	TokLtEq   // <=
	TokEqEq   // ==
	TokBangEq // !=
	TokGt     // >
	TokLt     // <

	// Logical operators
	TokAndAnd   // &&
	TokOrOr     // ||
	TokBang     // !
	TokQuestion // ??

	// Arithmetic operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokStarStar // ** (spread)
	TokSlash    // /
	TokPercent  // %

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokNumber: "number",
	TokString: "string",
	TokIdent:  "identifier",
	TokEOF:    "end of input",
}

// String returns a short human-readable name for the token type.
func (t TokenType) String() string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	for kw, tt := range keywords {
		if tt == t {
			return "'" + kw + "'"
		}
	}
	for p, tt := range punct {
		if tt == t {
			return "'" + p + "'"
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token. Number is set for TokNumber.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Span   ast.Span
}

var keywords = map[string]TokenType{
	"let":      TokLet,
	"if":       TokIf,
	"else":     TokElse,
	"while":    TokWhile,
	"for":      TokFor,
	"true":     TokTrue,
	"false":    TokFalse,
	"null":     TokNull,
	"function": TokFunction,
	"class":    TokClass,
	"def":      TokDef,
	"new":      TokNew,
	"return":   TokReturn,
	"break":    TokBreak,
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// two-character operators are matched before single characters
var punct = map[string]TokenType{
	"{":  TokLBrace,
	"}":  TokRBrace,
	"[":  TokLBracket,
	"]":  TokRBracket,
	"(":  TokLParen,
	")":  TokRParen,
	":":  TokColon,
	";":  TokSemicolon,
	",":  TokComma,
	".":  TokDot,
	"=":  TokEquals,
	">=": TokGtEq,
	"<=": TokLtEq,
	"==": TokEqEq,
	"!=": TokBangEq,
	">":  TokGt,
	"<":  TokLt,
	"&&": TokAndAnd,
	"||": TokOrOr,
	"!":  TokBang,
	"??": TokQuestion,
	"+":  TokPlus,
	"-":  TokMinus,
	"*":  TokStar,
	"**": TokStarStar,
	"/":  TokSlash,
	"%":  TokPercent,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '/' && s.peekAt(1) == '/' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanString copies bytes verbatim up to the next double quote.
// Backslashes have no special meaning.
func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "
	start := s.pos
	for !s.atEnd() {
		if s.peek() == '"' {
			text := s.source[start:s.pos]
			s.advance() // consume closing "
			return Token{Type: TokString, Value: text, Span: s.span(startLine, startCol)}, nil
		}
		s.advance()
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// Fraction only when a digit follows the dot, so `1.foo` stays a method call.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	if e := s.peek(); e == 'e' || e == 'E' {
		off := 1
		if sign := s.peekAt(1); sign == '+' || sign == '-' {
			off = 2
		}
		if isDigit(s.peekAt(off)) {
			for i := 0; i < off; i++ {
				s.advance()
			}
			for !s.atEnd() && isDigit(s.peek()) {
				s.advance()
			}
		}
	}

	text := s.source[startPos:s.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// Only range errors reach here; ParseFloat still returns ±Inf.
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid number %q", text))
		}
	}
	return Token{Type: TokNumber, Value: text, Number: n, Span: s.span(startLine, startCol)}, nil
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[startPos:s.pos]

	if tokType, ok := keywords[text]; ok {
		return Token{Type: tokType, Value: text, Span: s.span(startLine, startCol)}
	}

	// Validator marker suffix: `amount_usd??`.
	for s.peek() == '?' {
		s.advance()
	}
	return Token{
		Type:  TokIdent,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	span := ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1}
	return &diagnostics.Error{Diagnostic: diagnostics.MakeDiag(diagnostics.ELex, msg, &span, "")}
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{Type: TokEOF, Span: s.span(s.line, s.col)}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch {
	case isDigit(ch):
		return s.scanNumber()
	case ch == '"':
		return s.scanString()
	case isAlpha(ch):
		return s.scanIdentOrKeyword(), nil
	}

	if s.pos+1 < len(s.source) {
		two := s.source[s.pos : s.pos+2]
		if tt, ok := punct[two]; ok {
			s.advance()
			s.advance()
			return Token{Type: tt, Value: two, Span: s.span(startLine, startCol)}, nil
		}
	}
	if tt, ok := punct[string(ch)]; ok {
		s.advance()
		return Token{Type: tt, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	s.advance()
	if ch >= 0x20 && ch < 0x7f {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
	}
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected byte 0x%02x", ch))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
// The first lex error aborts tokenization.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
