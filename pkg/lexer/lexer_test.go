package lexer

import (
	"errors"
	"math"
	"testing"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.ds")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

func mustFailLex(t *testing.T, source string) *diagnostics.Error {
	t.Helper()
	_, err := Tokenize(source, "test.ds")
	if err == nil {
		t.Fatalf("expected lex error for %q", source)
	}
	var de *diagnostics.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *diagnostics.Error, got %T", err)
	}
	if de.Code != diagnostics.ELex {
		t.Errorf("expected code %s, got %s", diagnostics.ELex, de.Code)
	}
	return de
}

// ---------------------------------------------------------------------------
// Test: empty input produces only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

// ---------------------------------------------------------------------------
// Test: all keywords
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"let", TokLet},
		{"if", TokIf},
		{"else", TokElse},
		{"while", TokWhile},
		{"for", TokFor},
		{"true", TokTrue},
		{"false", TokFalse},
		{"null", TokNull},
		{"function", TokFunction},
		{"class", TokClass},
		{"def", TokDef},
		{"new", TokNew},
		{"return", TokReturn},
		{"break", TokBreak},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.keyword)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected token type %v, got %v", tt.expected, tokens[0].Type)
			}
			if !IsKeyword(tt.keyword) {
				t.Errorf("IsKeyword(%q) = false", tt.keyword)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: keyword vs identifier disambiguation
// ---------------------------------------------------------------------------
func TestKeywordVsIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"letter", TokIdent},
		{"iffy", TokIdent},
		{"format", TokIdent},
		{"functional", TokIdent},
		{"classify", TokIdent},
		{"default", TokIdent},
		{"newest", TokIdent},
		{"returns", TokIdent},
		{"breakfast", TokIdent},
		{"nullable", TokIdent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v for %q, got %v", tt.expected, tt.input, tokens[0].Type)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: identifiers, including the validator '?' suffix
// ---------------------------------------------------------------------------
func TestIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x", "x"},
		{"_private", "_private"},
		{"name123", "name123"},
		{"amount_usd", "amount_usd"},
		{"amount_usd??", "amount_usd??"},
		{"ready?", "ready?"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokIdent {
				t.Errorf("expected TokIdent, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, tokens[0].Value)
			}
		})
	}
}

func TestCoalesceNeedsSeparation(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "a ?? b")
	want := []TokenType{TokIdent, TokQuestion, TokIdent}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %v, got %v", i, tt, tokens[i].Type)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: numbers are parsed to float64
// ---------------------------------------------------------------------------
func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		value float64
	}{
		{"0", 0},
		{"42", 42},
		{"007", 7},
		{"3.14", 3.14},
		{"1e3", 1000},
		{"1E-3", 0.001},
		{"1.5e+2", 150},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokNumber {
				t.Errorf("expected TokNumber, got %v", tokens[0].Type)
			}
			if tokens[0].Number != tt.value {
				t.Errorf("expected %v, got %v", tt.value, tokens[0].Number)
			}
			if tokens[0].Value != tt.input {
				t.Errorf("expected lexeme %q, got %q", tt.input, tokens[0].Value)
			}
		})
	}
}

func TestHugeNumberIsInf(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "1e999")
	if !math.IsInf(tokens[0].Number, 1) {
		t.Errorf("expected +Inf, got %v", tokens[0].Number)
	}
}

func TestNumberFollowedByMethod(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "1.x")
	want := []TokenType{TokNumber, TokDot, TokIdent}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %v, got %v", i, tt, tokens[i].Type)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: strings are copied raw, without escape processing
// ---------------------------------------------------------------------------
func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", `""`, ""},
		{"simple", `"hello"`, "hello"},
		{"backslash n stays literal", `"a\nb"`, `a\nb`},
		{"backslash stays literal", `"C:\dir\"`, `C:\dir\`},
		{"multi-line", "\"one\ntwo\"", "one\ntwo"},
		{"utf-8", `"héllo"`, "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokString {
				t.Errorf("expected TokString, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, tokens[0].Value)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: punctuation and operators
// ---------------------------------------------------------------------------
func TestOperatorTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"{", TokLBrace},
		{"}", TokRBrace},
		{"[", TokLBracket},
		{"]", TokRBracket},
		{"(", TokLParen},
		{")", TokRParen},
		{":", TokColon},
		{";", TokSemicolon},
		{",", TokComma},
		{".", TokDot},
		{"=", TokEquals},
		{"+", TokPlus},
		{"-", TokMinus},
		{"*", TokStar},
		{"**", TokStarStar},
		{"/", TokSlash},
		{"%", TokPercent},
		{">", TokGt},
		{"<", TokLt},
		{">=", TokGtEq},
		{"<=", TokLtEq},
		{"==", TokEqEq},
		{"!=", TokBangEq},
		{"!", TokBang},
		{"&&", TokAndAnd},
		{"||", TokOrOr},
		{"??", TokQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v for %q, got %v", tt.expected, tt.input, tokens[0].Type)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: comments and spans
// ---------------------------------------------------------------------------
func TestLineComments(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "let x = 1; // trailing\n// full line\nx;")
	if len(tokens) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(tokens))
	}
	last := tokens[5]
	if last.Value != "x" || last.Span.StartLine != 3 || last.Span.StartCol != 1 {
		t.Errorf("unexpected token after comments: %+v", last)
	}
}

func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "let\n  total = 10;")
	tot := tokens[1]
	if tot.Span.StartLine != 2 || tot.Span.StartCol != 3 || tot.Span.EndCol != 8 {
		t.Errorf("unexpected span %+v", tot.Span)
	}
	if tot.Span.File != "test.ds" {
		t.Errorf("expected file test.ds, got %q", tot.Span.File)
	}
}

// ---------------------------------------------------------------------------
// Test: errors
// ---------------------------------------------------------------------------
func TestUnterminatedString(t *testing.T) {
	de := mustFailLex(t, "let s = \"abc")
	if de.Line() != 1 {
		t.Errorf("expected line 1, got %d", de.Line())
	}
}

func TestUnexpectedCharacters(t *testing.T) {
	for _, src := range []string{"@", "let x = 1 # 2;", "a & b", "a | b", "x ? y", "\x01"} {
		t.Run(src, func(t *testing.T) {
			mustFailLex(t, src)
		})
	}
}

func TestErrorLine(t *testing.T) {
	de := mustFailLex(t, "let a = 1;\nlet b = 2;\nlet c = $;")
	if de.Line() != 3 {
		t.Errorf("expected line 3, got %d", de.Line())
	}
}
