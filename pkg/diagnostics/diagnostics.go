// Package diagnostics defines dscript diagnostic types for lex/parse/check/runtime errors.
package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thomasrohde/dscript/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex           = "E_LEX"
	EParse         = "E_PARSE"
	EType          = "E_TYPE"
	EUndefinedVar  = "E_UNDEFINED_VAR"
	EUndefinedFn   = "E_UNDEFINED_FN"
	EArity         = "E_ARITY"
	EIndex         = "E_INDEX"
	ECallDepth     = "E_CALL_DEPTH"
	EValidation    = "E_VALIDATION"
	ECallback      = "E_CALLBACK"
	ERuntime       = "E_RUNTIME"
	ECancelled     = "E_CANCELLED"
	ERedeclared    = "E_REDECLARED"
	EFnDup         = "E_FN_DUP"
	EClassDup      = "E_CLASS_DUP"
	EMethodDup     = "E_METHOD_DUP"
	EShadowBuiltin = "E_SHADOW_BUILTIN"
)

var kindNames = map[string]string{
	ELex:           "LexError",
	EParse:         "ParseError",
	EType:          "TypeMismatch",
	EUndefinedVar:  "UndefinedVariable",
	EUndefinedFn:   "UndefinedFunction",
	EArity:         "ArityMismatch",
	EIndex:         "IndexOutOfBounds",
	ECallDepth:     "CallDepthExceeded",
	EValidation:    "ValidationError",
	ECallback:      "RuntimeCallbackFailure",
	ERuntime:       "RuntimeError",
	ECancelled:     "Cancelled",
	ERedeclared:    "Redeclaration",
	EFnDup:         "Redeclaration",
	EClassDup:      "Redeclaration",
	EMethodDup:     "Redeclaration",
	EShadowBuiltin: "Redeclaration",
}

// KindName returns the error kind name reported to script error callbacks.
func KindName(code string) string {
	if k, ok := kindNames[code]; ok {
		return k
	}
	return "RuntimeError"
}

// Diagnostic represents a lex, parse, check, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Line returns the start line of the diagnostic, or 0 when it has no span.
func (d Diagnostic) Line() int {
	if d.Span == nil {
		return 0
	}
	return d.Span.StartLine
}

// Error is the error type returned by every stage of the engine.
// Subject names the variable, function, class or field the error is about;
// Function is the user function executing when the error was raised.
type Error struct {
	Diagnostic
	Subject  string
	Function string
	Details  any
}

func (e *Error) Error() string {
	if e.Span != nil && e.Span.StartLine > 0 {
		return fmt.Sprintf("%s: line %d: %s", KindName(e.Code), e.Span.StartLine, e.Message)
	}
	return fmt.Sprintf("%s: %s", KindName(e.Code), e.Message)
}

// Errorf builds an *Error with no span.
func Errorf(code, subject, format string, args ...any) *Error {
	return &Error{
		Diagnostic: MakeDiag(code, fmt.Sprintf(format, args...), nil, ""),
		Subject:    subject,
	}
}

// At returns e with its span set, unless it already has one.
func (e *Error) At(span ast.Span) *Error {
	if e.Span == nil {
		s := span
		e.Span = &s
	}
	return e
}

// As extracts an *Error from err, wrapping foreign errors as ERuntime.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Diagnostic: MakeDiag(ERuntime, err.Error(), nil, "")}
}

// HasCode reports whether err carries the given diagnostic code.
func HasCode(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

var (
	errLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	locLabel  = color.New(color.FgCyan).SprintFunc()
	hintLabel = color.New(color.FgYellow).SprintFunc()
)

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("%s: %s\n  %s %s", errLabel("error["+d.Code+"]"), d.Message, locLabel("-->"), loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  %s %s", hintLabel("hint:"), d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
