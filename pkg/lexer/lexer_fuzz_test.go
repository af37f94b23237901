package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// The lexer should never panic; invalid input yields an error.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		// Keywords
		`let if else while for true false null`,
		`function class def new return break`,
		// Literals
		`42 3.14 1e10 1e 1e+ 0.5`,
		`"hello" "raw\n" "multi
line"`,
		// Operators
		`+ - * ** / % > < >= <= == != && || ! ??`,
		// Delimiters
		`{ } [ ] ( ) : ; , . =`,
		// Identifiers
		`x foo bar_baz amount_usd?? ok?`,
		// Comments
		`// a comment`,
		`let x = 1; // trailing`,
		// Programs
		`function add(a, b) { return a + b; } let r = add(2, 3);`,
		`class P { def get() { return this["v"]; } }`,
		`for (let i = 0; i < 3; i = i + 1) { f(**xs); }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`"""`,
		`@#$^&|`,
		`\x00`,
		`?`,
		`/`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			tokens, err := Tokenize(input, "fuzz.ds")
			if err == nil && (len(tokens) == 0 || tokens[len(tokens)-1].Type != TokEOF) {
				t.Fatalf("token stream for %q does not end in EOF", input)
			}
		}()
	})
}
