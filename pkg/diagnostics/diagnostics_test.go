package diagnostics_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

func init() {
	color.NoColor = true
}

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.ds", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Line() != 1 {
		t.Errorf("got Line() = %d, want 1", d.Line())
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.ds", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUndefinedVar, "undefined variable 'x'", span, "declare it with let")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNDEFINED_VAR]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.ds:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
}

func TestErrorMessage(t *testing.T) {
	e := diagnostics.Errorf(diagnostics.EArity, "f", "expected %d arguments, got %d", 2, 1)
	if got := e.Error(); got != "ArityMismatch: expected 2 arguments, got 1" {
		t.Errorf("got %q", got)
	}
	e.At(ast.Span{StartLine: 7})
	if got := e.Error(); got != "ArityMismatch: line 7: expected 2 arguments, got 1" {
		t.Errorf("got %q", got)
	}
	// At never overwrites an existing span.
	e.At(ast.Span{StartLine: 9})
	if e.Line() != 7 {
		t.Errorf("span overwritten: line %d", e.Line())
	}
}

func TestAsAndHasCode(t *testing.T) {
	base := diagnostics.Errorf(diagnostics.EIndex, "", "index 4 out of bounds")
	wrapped := fmt.Errorf("running: %w", base)

	if !diagnostics.HasCode(wrapped, diagnostics.EIndex) {
		t.Error("expected HasCode to see through wrapping")
	}
	if got := diagnostics.As(wrapped); got != base {
		t.Errorf("As returned %v, want the original error", got)
	}

	foreign := diagnostics.As(errors.New("boom"))
	if foreign.Code != diagnostics.ERuntime || foreign.Message != "boom" {
		t.Errorf("foreign error converted to %+v", foreign)
	}
	if diagnostics.As(nil) != nil {
		t.Error("As(nil) should be nil")
	}
}

func TestKindName(t *testing.T) {
	tests := map[string]string{
		diagnostics.ELex:       "LexError",
		diagnostics.EParse:     "ParseError",
		diagnostics.EType:      "TypeMismatch",
		diagnostics.ECallDepth: "CallDepthExceeded",
		diagnostics.ECallback:  "RuntimeCallbackFailure",
		"E_SOMETHING_ELSE":     "RuntimeError",
	}
	for code, want := range tests {
		if got := diagnostics.KindName(code); got != want {
			t.Errorf("KindName(%q) = %q, want %q", code, got, want)
		}
	}
}
