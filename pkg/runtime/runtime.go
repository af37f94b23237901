// Package runtime provides the dscript embedding engine.
package runtime

import (
	"context"
	"crypto/sha256"
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/inconshreveable/log15"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/config"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/evaluator"
	"github.com/thomasrohde/dscript/pkg/formatter"
	"github.com/thomasrohde/dscript/pkg/parser"
	"github.com/thomasrohde/dscript/pkg/shaping"
	"github.com/thomasrohde/dscript/pkg/stdlib"
	"github.com/thomasrohde/dscript/pkg/validator"
	"github.com/thomasrohde/dscript/pkg/value"
)

// Engine wires together the dscript components for embedding. An Engine
// may be used by one goroutine at a time; its parse cache may be shared.
type Engine struct {
	builtins      map[string]evaluator.BuiltinFunc
	shapes        *shaping.Registry
	mode          evaluator.Mode
	maxCallDepth  int
	errorCallback string
	sourceName    string

	cacheSize int
	cache     *lru.Cache

	log   log15.Logger
	trace func(evaluator.TraceEvent)

	noStdlib bool
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l log15.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithConfig applies mode, call depth, error callback and cache size from a
// loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.mode = cfg.EvalMode()
		e.maxCallDepth = cfg.MaxCallDepth
		e.errorCallback = cfg.ErrorCallback
		e.cacheSize = cfg.ParseCacheSize
	}
}

// WithParseCacheSize bounds the number of cached ASTs. Zero disables the cache.
func WithParseCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithoutStdlib starts the engine with an empty builtin table.
func WithoutStdlib() Option {
	return func(e *Engine) {
		e.noStdlib = true
	}
}

// WithSourceName sets the file name reported in diagnostic spans.
func WithSourceName(name string) Option {
	return func(e *Engine) {
		e.sourceName = name
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(evaluator.TraceEvent)) Option {
	return func(e *Engine) {
		e.trace = fn
	}
}

// New creates an Engine. By default the stdlib packs are registered, the
// mode is Strict and the call depth limit is evaluator.DefaultMaxCallDepth.
func New(opts ...Option) *Engine {
	e := &Engine{
		builtins:     make(map[string]evaluator.BuiltinFunc),
		shapes:       shaping.NewRegistry(),
		mode:         evaluator.Strict,
		maxCallDepth: evaluator.DefaultMaxCallDepth,
		cacheSize:    config.DefaultParseCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log15.New("module", "dscript")
		e.log.SetHandler(log15.DiscardHandler())
	}
	if !e.noStdlib {
		reg := stdlib.NewRegistry()
		stdlib.RegisterDefaults(reg)
		for name, fn := range reg.Builtins() {
			e.builtins[name] = fn
		}
	}
	if e.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		e.cache, _ = lru.New(e.cacheSize)
	}
	return e
}

// RegisterFunction installs or replaces a builtin.
func (e *Engine) RegisterFunction(name string, fn evaluator.BuiltinFunc) {
	e.builtins[name] = fn
}

// FunctionNames returns the registered builtin names in sorted order.
func (e *Engine) FunctionNames() []string {
	names := make([]string, 0, len(e.builtins))
	for n := range e.builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetMode selects Strict or Inference dispatch for later runs.
func (e *Engine) SetMode(m evaluator.Mode) {
	e.mode = m
}

// Mode returns the current dispatch mode.
func (e *Engine) Mode() evaluator.Mode {
	return e.mode
}

// SetMaxCallDepth sets the call-depth limit for later runs. Values below one
// restore the default.
func (e *Engine) SetMaxCallDepth(n int) {
	if n < 1 {
		n = evaluator.DefaultMaxCallDepth
	}
	e.maxCallDepth = n
}

// SetErrorCallback names the script function that receives run errors.
// An empty name restores returning errors to the host.
func (e *Engine) SetErrorCallback(name string) {
	e.errorCallback = name
}

// DataShaping returns the engine's shape registry.
func (e *Engine) DataShaping() *shaping.Registry {
	return e.shapes
}

// LoadShapes registers the shapes declared in each YAML file.
func (e *Engine) LoadShapes(paths ...string) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		names, err := e.shapes.LoadYAML(f)
		f.Close()
		if err != nil {
			return err
		}
		e.log.Debug("Loaded shapes", "file", path, "shapes", names)
	}
	return nil
}

// Run executes source with an empty initial environment.
func (e *Engine) Run(ctx context.Context, source string) (value.Map, error) {
	return e.RunWith(ctx, source, value.NewMap())
}

// RunWith executes source with initial bound in the global scope and returns
// the final snapshot.
func (e *Engine) RunWith(ctx context.Context, source string, initial value.Map) (value.Map, error) {
	snap, _, err := e.RunWithEntryResult(ctx, source, "", nil, initial)
	return snap, err
}

// RunWithEntryResult executes source, then calls the user function entry
// with args when entry is not empty. It returns the snapshot taken after the
// entry call and the entry's return value (Null when entry is empty).
func (e *Engine) RunWithEntryResult(ctx context.Context, source, entry string, args []value.Value, initial value.Map) (value.Map, value.Value, error) {
	r := e.newRun()
	snap, result, err := r.execute(ctx, source, entry, args, initial)
	if err == nil {
		return snap, result, nil
	}
	if e.errorCallback == "" || diagnostics.HasCode(err, diagnostics.ECancelled) {
		return snap, result, err
	}
	r.report(ctx, err)
	return r.in.Snapshot(), value.NewNull(), nil
}

// RunShaped pushes raw host inputs through the named shape, executes source
// (calling entry with args when set) and extracts the declared outputs.
// Execution failures are reported as a "$runtime" error in the Result and
// are not routed to the error callback.
func (e *Engine) RunShaped(ctx context.Context, shape, source, entry string, args []value.Value, raw map[string]any) (shaping.Result, error) {
	return e.shapes.Run(shape, raw, func(initial value.Map) (value.Map, error) {
		snap, _, err := e.newRun().execute(ctx, source, entry, args, initial)
		return snap, err
	})
}

// HasUserFunction parses source and reports whether it declares a top-level
// function called name.
func (e *Engine) HasUserFunction(source, name string) (bool, error) {
	prog, err := e.parse(source)
	if err != nil {
		return false, err
	}
	for _, fn := range prog.Functions() {
		if fn.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Check parses source and runs the static checks without executing it.
func (e *Engine) Check(source string) []diagnostics.Diagnostic {
	prog, err := e.parse(source)
	if err != nil {
		return []diagnostics.Diagnostic{diagnostics.As(err).Diagnostic}
	}
	known := make(map[string]bool, len(e.builtins))
	for n := range e.builtins {
		known[n] = true
	}
	return validator.Validate(prog, known)
}

// Format parses and formats a dscript program.
func (e *Engine) Format(source string) (string, error) {
	prog, err := e.parse(source)
	if err != nil {
		return "", err
	}
	return formatter.Format(prog), nil
}

// Parse returns the AST for source, consulting the parse cache.
func (e *Engine) Parse(source string) (*ast.Program, error) {
	return e.parse(source)
}

func (e *Engine) parse(source string) (*ast.Program, error) {
	if e.cache == nil {
		return parser.Parse(source, e.sourceName)
	}
	key := sha256.Sum256([]byte(e.sourceName + "\x00" + source))
	if prog, ok := e.cache.Get(key); ok {
		return prog.(*ast.Program), nil
	}
	e.log.Debug("Parse cache miss", "source", e.sourceName, "bytes", len(source))
	prog, err := parser.Parse(source, e.sourceName)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, prog)
	return prog, nil
}

func (e *Engine) newRun() *run {
	return &run{
		engine: e,
		in: evaluator.New(evaluator.Options{
			Builtins:     e.builtins,
			Shapes:       e.shapes,
			Mode:         e.mode,
			MaxCallDepth: e.maxCallDepth,
			Trace:        e.trace,
		}),
	}
}
