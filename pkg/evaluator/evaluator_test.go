package evaluator_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/evaluator"
	"github.com/thomasrohde/dscript/pkg/parser"
	"github.com/thomasrohde/dscript/pkg/shaping"
	"github.com/thomasrohde/dscript/pkg/value"
)

// --- helpers ---

// testBuiltins is a small builtin table so these tests do not depend on the
// stdlib packs.
func testBuiltins() map[string]evaluator.BuiltinFunc {
	return map[string]evaluator.BuiltinFunc{
		"len": func(args []value.Value) (value.Value, error) {
			items, err := value.AsArray(args[0])
			if err != nil {
				return nil, err
			}
			return value.NewNumber(float64(len(items))), nil
		},
		"fail": func(args []value.Value) (value.Value, error) {
			return nil, errors.New("deliberate failure")
		},
	}
}

func defaultOpts() evaluator.Options {
	return evaluator.Options{Builtins: testBuiltins()}
}

// runWith parses and executes source, returning the interpreter and the run
// error. Parse errors fail the test.
func runWith(t *testing.T, src string, opts evaluator.Options) (*evaluator.Interpreter, error) {
	t.Helper()
	prog, err := parser.Parse(src, "test.ds")
	require.NoError(t, err, "parse")
	in := evaluator.New(opts)
	return in, in.Execute(context.Background(), prog)
}

// mustRun executes source and returns the final snapshot.
func mustRun(t *testing.T, src string) value.Map {
	t.Helper()
	in, err := runWith(t, src, defaultOpts())
	require.NoError(t, err)
	return in.Snapshot()
}

func get(t *testing.T, snap value.Map, name string) value.Value {
	t.Helper()
	v, ok := snap.Get(name)
	require.True(t, ok, "snapshot has no %q: %s", name, value.Format(snap))
	return v
}

func expectNumber(t *testing.T, snap value.Map, name string, want float64) {
	t.Helper()
	n, err := value.AsNumber(get(t, snap, name))
	require.NoError(t, err)
	assert.Equal(t, want, n, name)
}

func expectValue(t *testing.T, snap value.Map, name string, want value.Value) {
	t.Helper()
	got := get(t, snap, name)
	assert.True(t, value.Equal(want, got), "%s: want %s, got %s", name, value.Format(want), value.Format(got))
}

// expectRuntimeError asserts err is a diagnostics error with the given code.
func expectRuntimeError(t *testing.T, err error, code string) *diagnostics.Error {
	t.Helper()
	require.Error(t, err)
	var de *diagnostics.Error
	require.True(t, errors.As(err, &de), "expected *diagnostics.Error, got %T: %v", err, err)
	assert.Equal(t, code, de.Code, "message: %s", de.Message)
	return de
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	_, err := runWith(t, src, defaultOpts())
	return err
}

// ---------------------------------------------------------------------------
// Literals and operators
// ---------------------------------------------------------------------------

func TestArithmetic(t *testing.T) {
	snap := mustRun(t, `
let a = 1 + 2 * 3;
let b = (1 + 2) * 3;
let c = 7 % 4;
let d = 10 / 4;
let e = -a;
let f = 2 - 5 - 1;
`)
	expectNumber(t, snap, "a", 7)
	expectNumber(t, snap, "b", 9)
	expectNumber(t, snap, "c", 3)
	expectNumber(t, snap, "d", 2.5)
	expectNumber(t, snap, "e", -7)
	expectNumber(t, snap, "f", -4)
}

func TestDivisionByZeroIsIEEE(t *testing.T) {
	snap := mustRun(t, `let p = 1 / 0; let n = -1 / 0; let z = 0 / 0;`)
	expectNumber(t, snap, "p", math.Inf(1))
	expectNumber(t, snap, "n", math.Inf(-1))
	z, _ := value.AsNumber(get(t, snap, "z"))
	assert.True(t, math.IsNaN(z))
}

func TestPlusOperator(t *testing.T) {
	snap := mustRun(t, `
let s = "n=" + 5;
let t = 1.5 + "x";
let a = [1] + [2, 3];
let m = "m" + [1, "a"];
`)
	expectValue(t, snap, "s", value.NewString("n=5"))
	expectValue(t, snap, "t", value.NewString("1.5x"))
	expectValue(t, snap, "a", value.NewArray([]value.Value{value.NewNumber(1), value.NewNumber(2), value.NewNumber(3)}))
	expectValue(t, snap, "m", value.NewString(`m[1, "a"]`))

	err := runErr(t, `let x = true + 1;`)
	expectRuntimeError(t, err, diagnostics.EType)
}

func TestComparisonAndEquality(t *testing.T) {
	snap := mustRun(t, `
let a = 2 > 1;
let b = "abc" < "abd";
let c = [1, {"k": 2}] == [1, {"k": 2}];
let d = null == false;
let e = 1 != "1";
`)
	for name, want := range map[string]bool{"a": true, "b": true, "c": true, "d": false, "e": true} {
		expectValue(t, snap, name, value.NewBool(want))
	}

	err := runErr(t, `let x = 1 < "2";`)
	expectRuntimeError(t, err, diagnostics.EType)
}

func TestLogicalOperatorsYieldOperands(t *testing.T) {
	snap := mustRun(t, `
let a = 0 || "fallback";
let b = 1 && "second";
let c = null ?? 5;
let d = 0 ?? 5;
let e = !"";
let calls = 0;
function bump() { calls = calls + 1; return true; }
let f = false && bump();
let g = true || bump();
`)
	expectValue(t, snap, "a", value.NewString("fallback"))
	expectValue(t, snap, "b", value.NewString("second"))
	expectNumber(t, snap, "c", 5)
	expectNumber(t, snap, "d", 0)
	expectValue(t, snap, "e", value.NewBool(true))
	expectNumber(t, snap, "calls", 0)
}

// ---------------------------------------------------------------------------
// Scoping
// ---------------------------------------------------------------------------

func TestBlockScopingAndShadowing(t *testing.T) {
	snap := mustRun(t, `
let x = 1;
let seen = 0;
{
  let x = 2;
  seen = x;
}
`)
	expectNumber(t, snap, "x", 1)
	expectNumber(t, snap, "seen", 2)
	assert.Equal(t, []string{"x", "seen"}, snap.Keys(), "block locals never reach the snapshot")
}

func TestRedeclarationInSameScope(t *testing.T) {
	err := runErr(t, "let x = 1;\nlet x = 2;")
	de := expectRuntimeError(t, err, diagnostics.ERedeclared)
	assert.Equal(t, 2, de.Line())
}

func TestAssignUndefined(t *testing.T) {
	de := expectRuntimeError(t, runErr(t, `y = 3;`), diagnostics.EUndefinedVar)
	assert.Equal(t, "y", de.Subject)
}

func TestUndefinedVariableRead(t *testing.T) {
	expectRuntimeError(t, runErr(t, `let a = b;`), diagnostics.EUndefinedVar)
}

func TestFunctionSeesLaterMutationsOfDeclaringFrame(t *testing.T) {
	snap := mustRun(t, `
let r = 0;
{
  let base = 1;
  function read() { return base; }
  base = 10;
  r = read();
}
`)
	expectNumber(t, snap, "r", 10)
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func TestWhileAndBreak(t *testing.T) {
	snap := mustRun(t, `
let i = 0;
let total = 0;
while (true) {
  if (i >= 5) { break; }
  total = total + i;
  i = i + 1;
}
`)
	expectNumber(t, snap, "total", 10)
}

func TestForLoopDesugared(t *testing.T) {
	snap := mustRun(t, `
let acc = [];
for (let i = 0; i < 3; i = i + 1) {
  acc = acc + [i * i];
}
`)
	expectValue(t, snap, "acc", value.NewArray([]value.Value{value.NewNumber(0), value.NewNumber(1), value.NewNumber(4)}))
	assert.False(t, snap.Has("i"), "loop variable is scoped to the desugared block")
}

func TestReturnUnwindsLoops(t *testing.T) {
	snap := mustRun(t, `
function firstOver(xs, n) {
  let i = 0;
  while (i < len(xs)) {
    if (xs[i] > n) { return xs[i]; }
    i = i + 1;
  }
  return null;
}
let r = firstOver([1, 5, 9], 4);
let none = firstOver([1], 4);
`)
	expectNumber(t, snap, "r", 5)
	expectValue(t, snap, "none", value.NewNull())
}

// ---------------------------------------------------------------------------
// Functions and dispatch
// ---------------------------------------------------------------------------

func TestAddFunction(t *testing.T) {
	snap := mustRun(t, `function add(a, b) { return a + b; } let r = add(2, 3);`)
	expectNumber(t, snap, "r", 5)
}

func TestNoHoisting(t *testing.T) {
	expectRuntimeError(t, runErr(t, `let r = later(); function later() { return 1; }`), diagnostics.EUndefinedFn)
}

func TestSpreadArguments(t *testing.T) {
	snap := mustRun(t, `
function four(a, b, c, d) { return [a, b, c, d]; }
let r = four(1, **[2, 3], 4);
`)
	expectValue(t, snap, "r", value.NewArray([]value.Value{
		value.NewNumber(1), value.NewNumber(2), value.NewNumber(3), value.NewNumber(4),
	}))

	err := runErr(t, `function one(a) { return a; } let r = one(**5);`)
	expectRuntimeError(t, err, diagnostics.EType)
}

func TestArityMismatch(t *testing.T) {
	de := expectRuntimeError(t, runErr(t, `function f(a) { return a; } f(1, 2);`), diagnostics.EArity)
	assert.Equal(t, "f", de.Subject)
}

func TestDeclarationConflicts(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{`function f() {} function f() {}`, diagnostics.EFnDup},
		{`function len(x) { return 0; }`, diagnostics.EShadowBuiltin},
		{`function setglobal(a, b) {}`, diagnostics.EShadowBuiltin},
		{`class A { def m() {} } class A {}`, diagnostics.EClassDup},
		{`class A { def m() {} def A.m() {} }`, diagnostics.EMethodDup},
	}
	for _, tt := range tests {
		expectRuntimeError(t, runErr(t, tt.src), tt.code)
	}
}

func TestNestedDeclarationRerunsRebind(t *testing.T) {
	snap := mustRun(t, `
function outer(n) {
  function inner() { return n; }
  return inner();
}
let a = outer(1);
let b = outer(2);
`)
	expectNumber(t, snap, "a", 1)
	expectNumber(t, snap, "b", 2)
}

func TestFuncRefVariableCallNeedsInference(t *testing.T) {
	src := `
function double(x) { return x * 2; }
let f = double;
let r = f(4);
let l = len;
let n = l([1, 2]);
`
	_, err := runWith(t, src, defaultOpts())
	de := expectRuntimeError(t, err, diagnostics.EUndefinedFn)
	assert.Equal(t, "f", de.Subject)

	opts := defaultOpts()
	opts.Mode = evaluator.Inference
	in, err := runWith(t, src, opts)
	require.NoError(t, err)
	snap := in.Snapshot()
	expectValue(t, snap, "f", value.NewFuncRef("double"))
	expectNumber(t, snap, "r", 8)
	expectNumber(t, snap, "n", 2)
}

func TestModeGatingOfCall(t *testing.T) {
	src := `
function double(x) { return x * 2; }
let r = call("double", 21);
let name = "double";
let s = name(2);
`
	_, err := runWith(t, src, defaultOpts())
	de := expectRuntimeError(t, err, diagnostics.EUndefinedFn)
	assert.Contains(t, de.Message, "INFERENCE")

	opts := defaultOpts()
	opts.Mode = evaluator.Inference
	in, err := runWith(t, src, opts)
	require.NoError(t, err)
	snap := in.Snapshot()
	expectNumber(t, snap, "r", 42)
	expectNumber(t, snap, "s", 4)
}

func TestStringCalleeRejectedInStrict(t *testing.T) {
	err := runErr(t, `function f() { return 1; } let name = "f"; name();`)
	expectRuntimeError(t, err, diagnostics.EUndefinedFn)
}

func TestPseudoBuiltins(t *testing.T) {
	snap := mustRun(t, `
let before = varexists("count");
function init() { setglobal("count", 1); }
init();
let after = varexists("count");
let c = getglobal("count");
setglobal("count", c + 1);
`)
	expectValue(t, snap, "before", value.NewBool(false))
	expectValue(t, snap, "after", value.NewBool(true))
	expectNumber(t, snap, "count", 2)

	expectRuntimeError(t, runErr(t, `getglobal("missing");`), diagnostics.EUndefinedVar)
	expectRuntimeError(t, runErr(t, `varexists();`), diagnostics.EArity)
}

func TestBuiltinErrorsAreRuntimeErrors(t *testing.T) {
	de := expectRuntimeError(t, runErr(t, "\n\nfail();"), diagnostics.ERuntime)
	assert.Equal(t, "fail", de.Subject)
	assert.Equal(t, 3, de.Line())
	assert.Contains(t, de.Message, "deliberate failure")
}

func TestErrorCarriesFunctionName(t *testing.T) {
	err := runErr(t, `
function inner() { return missing; }
function outer() { return inner(); }
outer();
`)
	de := expectRuntimeError(t, err, diagnostics.EUndefinedVar)
	assert.Equal(t, "inner", de.Function)
	assert.Equal(t, 2, de.Line())
}

// ---------------------------------------------------------------------------
// Call depth
// ---------------------------------------------------------------------------

func TestCallDepthGuard(t *testing.T) {
	src := `
let depth = 0;
function down(n) {
  depth = depth + 1;
  if (n > 1) { down(n - 1); }
}
`
	opts := defaultOpts()
	opts.MaxCallDepth = 5

	_, err := runWith(t, src+"down(5);", opts)
	require.NoError(t, err, "exactly MaxCallDepth nested calls succeed")

	in, err := runWith(t, src+"down(6);", opts)
	expectRuntimeError(t, err, diagnostics.ECallDepth)
	in.Unwind()
	expectNumber(t, in.Snapshot(), "depth", 5)
}

func TestDefaultCallDepth(t *testing.T) {
	_, err := runWith(t, `function f() { f(); } f();`, defaultOpts())
	de := expectRuntimeError(t, err, diagnostics.ECallDepth)
	assert.Contains(t, de.Message, fmt.Sprint(evaluator.DefaultMaxCallDepth))
}

// ---------------------------------------------------------------------------
// Validator convention
// ---------------------------------------------------------------------------

func TestValidatorMissingWithStrictSuffix(t *testing.T) {
	err := runErr(t, `function pay(amount_usd??) { return amount_usd; } pay(5);`)
	expectRuntimeError(t, err, diagnostics.EValidation)

	snap := mustRun(t, `function pay(amount_usd) { return amount_usd; } let r = pay(5);`)
	expectNumber(t, snap, "r", 5)
}

func TestValidatorFunction(t *testing.T) {
	base := `
function type_amount(x) { return x >= 0; }
function type_name(x) { if (x == "") { return ["empty"]; } return []; }
function pay(amount_usd??, name_of) { return amount_usd; }
`
	snap := mustRun(t, base+`let r = pay(5, "bob");`)
	expectNumber(t, snap, "r", 5)

	expectRuntimeError(t, runErr(t, base+`pay(-1, "bob");`), diagnostics.EValidation)

	de := expectRuntimeError(t, runErr(t, base+`pay(1, "");`), diagnostics.EValidation)
	assert.True(t, value.Equal(value.NewArray([]value.Value{value.NewString("empty")}), de.Details.(value.Value)))
}

func TestValidatorBadReturnType(t *testing.T) {
	err := runErr(t, `function type_x(v) { return 1; } function f(x_a) { return x_a; } f(1);`)
	expectRuntimeError(t, err, diagnostics.EType)
}

func TestValidatorNoValidationPrefix(t *testing.T) {
	snap := mustRun(t, `function f(no_validation_x??) { return no_validation_x; } let r = f(3);`)
	expectNumber(t, snap, "r", 3)
}

func TestValidatorShapeCoercesArgument(t *testing.T) {
	shapes := shaping.NewRegistry()
	floor := 0.0
	require.NoError(t, shapes.Register(shaping.Shape{
		Name:   "amount",
		Inputs: []shaping.FieldSpec{{Name: "value", Type: shaping.TypeNumber, Min: &floor}},
	}))
	opts := defaultOpts()
	opts.Shapes = shapes

	in, err := runWith(t, `function pay(amount_usd) { return amount_usd + 1; } let r = pay("41");`, opts)
	require.NoError(t, err)
	expectNumber(t, in.Snapshot(), "r", 42)

	_, err = runWith(t, `function pay(amount??) { return amount; } pay(-3);`, opts)
	de := expectRuntimeError(t, err, diagnostics.EValidation)
	assert.Contains(t, de.Message, "must be >= 0")
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

func TestClassIdentityAndState(t *testing.T) {
	snap := mustRun(t, `
class Counter {
  def init(start) { this["n"] = start; }
  def Counter.inc() { this["n"] = this["n"] + 1; return this["n"]; }
}
let a = new Counter(10);
let b = new Counter(0);
a.inc();
let r = a.inc();
let same = a == a;
let different = a == b;
`)
	expectNumber(t, snap, "r", 12)
	expectValue(t, snap, "same", value.NewBool(true))
	expectValue(t, snap, "different", value.NewBool(false))

	a, err := value.AsInstance(get(t, snap, "a"))
	require.NoError(t, err)
	state, err := value.AsMap(get(t, snap, a.Key()))
	require.NoError(t, err)
	n, _ := state.Get("n")
	assert.True(t, value.Equal(value.NewNumber(12), n))
}

func TestInstanceIdsAreDeterministic(t *testing.T) {
	src := `class P {} let a = new P(); let b = new P();`
	first := mustRun(t, src)
	second := mustRun(t, src)
	if diff := cmp.Diff(first.Keys(), second.Keys()); diff != "" {
		t.Errorf("snapshot keys differ between runs (-first +second):\n%s", diff)
	}
	assert.True(t, value.Equal(first, second))
	assert.NotEqual(t, value.Format(get(t, first, "a")), value.Format(get(t, first, "b")))
}

func TestNewWithoutInitRejectsArgs(t *testing.T) {
	expectRuntimeError(t, runErr(t, `class P {} let p = new P(1);`), diagnostics.EArity)
	expectRuntimeError(t, runErr(t, `let p = new Missing();`), diagnostics.EUndefinedVar)
	expectRuntimeError(t, runErr(t, `class P {} let p = new P(); p.nope();`), diagnostics.EUndefinedFn)
	expectRuntimeError(t, runErr(t, `let x = 1; x.m();`), diagnostics.EType)
}

func TestClassValueFallback(t *testing.T) {
	snap := mustRun(t, `class P { def a() {} def b() {} } let c = P;`)
	c, ok := get(t, snap, "c").(value.Class)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, c.Methods)
}

func TestSeedRestoresInstances(t *testing.T) {
	first := mustRun(t, `class P { def init() { this["v"] = 1; } def bump() { this["v"] = this["v"] + 1; } } let p = new P();`)

	prog, err := parser.Parse(`
class P { def init() { this["v"] = 1; } def bump() { this["v"] = this["v"] + 1; } }
p.bump();
let q = new P();
`, "second.ds")
	require.NoError(t, err)
	in := evaluator.New(defaultOpts())
	require.NoError(t, in.Seed(first))
	require.NoError(t, in.Execute(context.Background(), prog))

	snap := in.Snapshot()
	p, _ := value.AsInstance(get(t, snap, "p"))
	state, _ := value.AsMap(get(t, snap, p.Key()))
	v, _ := state.Get("v")
	assert.True(t, value.Equal(value.NewNumber(2), v))

	q, _ := value.AsInstance(get(t, snap, "q"))
	assert.NotEqual(t, p.Key(), q.Key(), "fresh ids skip keys already present")
}

// ---------------------------------------------------------------------------
// Indexing
// ---------------------------------------------------------------------------

func TestMapIndexAssignAppends(t *testing.T) {
	snap := mustRun(t, `let m = {"a": 1, "b": 2}; m["c"] = 3; let missing = m["zz"];`)
	m, err := value.AsMap(get(t, snap, "m"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	expectValue(t, snap, "missing", value.NewNull())
}

func TestNestedWriteBackHasValueSemantics(t *testing.T) {
	snap := mustRun(t, `
let grid = [[1, 2], [3, 4]];
let alias = grid;
grid[1][0] = 30;
let cfg = {"db": {"port": 1}};
cfg["db"]["port"] = 2;
`)
	expectValue(t, snap, "alias", mustParseValue(t, `[[1,2],[3,4]]`))
	expectValue(t, snap, "grid", mustParseValue(t, `[[1,2],[30,4]]`))
	expectValue(t, snap, "cfg", mustParseValue(t, `{"db":{"port":2}}`))
}

func TestIndexErrors(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{`let a = [1]; let x = a[1];`, diagnostics.EIndex},
		{`let a = [1]; let x = a[-1];`, diagnostics.EIndex},
		{`let a = [1]; a[3] = 1;`, diagnostics.EIndex},
		{`let a = [1]; let x = a[0.5];`, diagnostics.EType},
		{`let m = {}; let x = m[1];`, diagnostics.EType},
		{`let n = 5; let x = n[0];`, diagnostics.EType},
		{`let s = "ab"; let x = s[2];`, diagnostics.EIndex},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expectRuntimeError(t, runErr(t, tt.src), tt.code)
		})
	}
}

func TestStringAndBytesIndexing(t *testing.T) {
	snap := mustRun(t, `let s = "héllo"; let c = s[1]; s[0] = "j";`)
	expectValue(t, snap, "c", value.NewString("é"))
	expectValue(t, snap, "s", value.NewString("jéllo"))
}

func TestMatrixRowsKeepShape(t *testing.T) {
	mat, err := value.NewMatrix([][]value.Value{{value.NewNumber(1), value.NewNumber(2)}})
	require.NoError(t, err)
	initial := value.NewMap(value.KeyValue{Key: "m", Value: mat})

	run := func(src string) (*evaluator.Interpreter, error) {
		prog, err := parser.Parse(src, "m.ds")
		require.NoError(t, err)
		in := evaluator.New(defaultOpts())
		require.NoError(t, in.Seed(initial))
		return in, in.Execute(context.Background(), prog)
	}

	in, err := run(`m[0][1] = 9; let row = m[0];`)
	require.NoError(t, err)
	snap := in.Snapshot()
	got, _ := value.AsMatrix(get(t, snap, "m"))
	assert.True(t, value.Equal(value.NewNumber(9), got.Rows[0][1]))
	expectValue(t, snap, "row", mustParseValue(t, `[1, 9]`))

	_, err = run(`m[0] = [1, 2, 3];`)
	expectRuntimeError(t, err, diagnostics.EType)
}

func TestAssignIntoTemporaryFails(t *testing.T) {
	err := runErr(t, `function f() { return [1]; } f()[0] = 2;`)
	expectRuntimeError(t, err, diagnostics.EType)
}

// ---------------------------------------------------------------------------
// Host interaction
// ---------------------------------------------------------------------------

func TestCallFunctionAfterExecute(t *testing.T) {
	in, err := runWith(t, `function greet(n) { return "hi " + n; }`, defaultOpts())
	require.NoError(t, err)
	assert.True(t, in.HasFunction("greet"))

	v, err := in.CallFunction(context.Background(), "greet", []value.Value{value.NewString("ann")})
	require.NoError(t, err)
	assert.Equal(t, "hi ann", value.Format(v))

	_, err = in.CallFunction(context.Background(), "nope", nil)
	expectRuntimeError(t, err, diagnostics.EUndefinedFn)
}

func TestCancelledContext(t *testing.T) {
	prog, err := parser.Parse(`let i = 0; while (true) { i = i + 1; }`, "loop.ds")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = evaluator.New(defaultOpts()).Execute(ctx, prog)
	expectRuntimeError(t, err, diagnostics.ECancelled)
}

func TestTraceEventsAreSequenced(t *testing.T) {
	var events []string
	opts := defaultOpts()
	opts.Trace = func(ev evaluator.TraceEvent) {
		events = append(events, fmt.Sprintf("%d:%s:%s", ev.Seq, ev.Event, ev.Name))
	}
	_, err := runWith(t, `function f() { return len([1]); } f();`, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1:run_start:", "2:fn_call_start:f", "3:builtin:len", "4:fn_call_end:f", "5:run_end:",
	}, events)
}

func TestDeterministicSnapshots(t *testing.T) {
	src := `
let m = {"z": 1, "a": 2};
let xs = [];
for (let i = 0; i < 4; i = i + 1) { xs = xs + [i]; }
class C { def init(v) { this["v"] = v; } }
let c = new C(xs);
`
	a := mustRun(t, src)
	b := mustRun(t, src)
	ea, err := value.EncodeSnapshot(a)
	require.NoError(t, err)
	eb, err := value.EncodeSnapshot(b)
	require.NoError(t, err)
	assert.Equal(t, string(ea), string(eb))
	assert.True(t, strings.HasPrefix(string(ea), `{"m":{"z":1,"a":2}`))
}

func mustParseValue(t *testing.T, js string) value.Value {
	t.Helper()
	v, err := value.Decode([]byte(js))
	require.NoError(t, err)
	return v
}
