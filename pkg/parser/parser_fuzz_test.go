package parser_test

import (
	"testing"

	"github.com/thomasrohde/dscript/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; invalid input yields an error.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`let x = 1;`,
		`function add(a, b) { return a + b; } let r = add(2, 3);`,
		`let m = {"a": 1, b: 2}; m["c"] = 3;`,
		`for (let i = 0; i < 10; i = i + 1) { if (i == 5) { break; } }`,
		`while (x) { x = x - 1; }`,
		`class Foo { def init(v) { this["v"] = v; } def Foo.get() { return this["v"]; } }`,
		`let a = new Foo(1); a.get();`,
		`f(1, **[2, 3], 4);`,
		`function pay(amount_usd??) { return amount_usd; }`,
		`let y = a ?? b || c && !d;`,
		// Broken inputs
		``,
		`let`,
		`let x = ;`,
		`function (`,
		`class A { let }`,
		`break;`,
		`1 = 2;`,
		`f(**);`,
		`{"a" 1}`,
		`for (;;`,
		`((((((((((`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on input %q: %v", input, r)
				}
			}()
			prog, err := parser.Parse(input, "fuzz.ds")
			if err == nil && prog == nil {
				t.Fatalf("nil program without error for %q", input)
			}
		}()
	})
}
