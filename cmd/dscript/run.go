package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/inconshreveable/log15"
	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/dscript/pkg/config"
	"github.com/thomasrohde/dscript/pkg/evaluator"
	"github.com/thomasrohde/dscript/pkg/include"
	"github.com/thomasrohde/dscript/pkg/runtime"
	"github.com/thomasrohde/dscript/pkg/shaping"
	"github.com/thomasrohde/dscript/pkg/value"
)

var (
	entryFlag = cli.StringFlag{
		Name:  "entry",
		Usage: "User function to call after the top level has run",
	}
	stateFlag = cli.StringFlag{
		Name:  "state",
		Usage: "Snapshot JSON file to seed the environment from",
	}
	saveFlag = cli.StringFlag{
		Name:  "save",
		Usage: "Write the resulting snapshot to this file",
	}
	shapeFlag = cli.StringFlag{
		Name:  "shape",
		Usage: "Run through the named data shape",
	}
	shapesFlag = cli.StringSliceFlag{
		Name:  "shapes",
		Usage: "YAML shape definition file (repeatable)",
	}
	inputFlag = cli.StringFlag{
		Name:  "input",
		Usage: "JSON object with raw inputs for --shape",
	}
	tableFlag = cli.BoolFlag{
		Name:  "table",
		Usage: "Print the snapshot as a table",
	}
	debugParseFlag = cli.BoolFlag{
		Name:  "debug-parse",
		Usage: "Dump the parsed AST to stderr",
	}
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "Log execution trace events at debug level",
	}
)

var runCommand = cli.Command{
	Action:    runScript,
	Name:      "run",
	Usage:     "Execute a script and print the resulting environment",
	ArgsUsage: "<file|->",
	Flags: []cli.Flag{
		modeFlag, maxDepthFlag, includeFlag, entryFlag, stateFlag, saveFlag,
		shapeFlag, shapesFlag, inputFlag, tableFlag, prettyFlag, debugParseFlag, traceFlag,
	},
	Description: `The run command executes a script. Without --entry only the top level runs.
With --shape, raw inputs from --input are coerced and validated first and the
declared outputs are printed instead of the whole environment.`,
}

func runScript(ctx *cli.Context) error {
	pretty := ctx.Bool(prettyFlag.Name)
	file := ctx.Args().First()
	if file == "" {
		return usageError(ctx, "usage: dscript run [options] <file|->")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	cfg.Shapes = append(cfg.Shapes, ctx.StringSlice(shapesFlag.Name)...)

	source, name, err := readSource(cfg, file)
	if err != nil {
		return fail(ctx, err, pretty)
	}

	var opts []runtime.Option
	if ctx.Bool(traceFlag.Name) {
		tlog := log15.New("module", "trace")
		opts = append(opts, runtime.WithTrace(func(ev evaluator.TraceEvent) {
			tlog.Debug("Trace", "seq", ev.Seq, "event", ev.Event, "name", ev.Name, "depth", ev.Depth)
		}))
	}
	engine, err := newEngine(cfg, name, opts...)
	if err != nil {
		return fail(ctx, err, pretty)
	}

	if ctx.Bool(debugParseFlag.Name) {
		prog, err := engine.Parse(source)
		if err != nil {
			return fail(ctx, err, pretty)
		}
		spew.Fdump(ctx.App.ErrWriter, prog)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if shape := ctx.String(shapeFlag.Name); shape != "" {
		return runShaped(runCtx, ctx, engine, shape, source, pretty)
	}

	initial := value.NewMap()
	if path := ctx.String(stateFlag.Name); path != "" {
		if initial, err = readSnapshot(path); err != nil {
			return fail(ctx, err, pretty)
		}
	}
	entry := ctx.String(entryFlag.Name)
	snap, result, err := engine.RunWithEntryResult(runCtx, source, entry, nil, initial)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	if path := ctx.String(saveFlag.Name); path != "" {
		if err := writeSnapshot(path, snap); err != nil {
			return fail(ctx, err, pretty)
		}
	}

	out := ctx.App.Writer
	if ctx.Bool(tableFlag.Name) {
		printTable(out, snap)
		if entry != "" {
			fmt.Fprintf(out, "%s() = %s\n", entry, value.Format(result))
		}
		return nil
	}
	var doc value.Value = snap
	if entry != "" {
		doc = value.NewMap(
			value.KeyValue{Key: "result", Value: result},
			value.KeyValue{Key: "snapshot", Value: snap},
		)
	}
	return printJSON(ctx, doc, pretty)
}

func runShaped(runCtx context.Context, ctx *cli.Context, engine *runtime.Engine, shape, source string, pretty bool) error {
	raw := map[string]any{}
	if path := ctx.String(inputFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fail(ctx, err, pretty)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return fail(ctx, fmt.Errorf("%s: %w", path, err), pretty)
		}
	}
	res, err := engine.RunShaped(runCtx, shape, source, ctx.String(entryFlag.Name), nil, raw)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	if err := printJSON(ctx, shapedDoc(res), pretty); err != nil {
		return err
	}
	return shapedExit(res)
}

func shapedDoc(res shaping.Result) value.Map {
	errs := make([]value.Value, len(res.Errors))
	for i, fe := range res.Errors {
		errs[i] = value.NewMap(
			value.KeyValue{Key: "path", Value: value.NewString(fe.Path)},
			value.KeyValue{Key: "message", Value: value.NewString(fe.Message)},
		)
	}
	return value.NewMap(
		value.KeyValue{Key: "ok", Value: value.NewBool(res.OK)},
		value.KeyValue{Key: "outputs", Value: res.Outputs},
		value.KeyValue{Key: "errors", Value: value.NewArray(errs)},
	)
}

// shapedExit returns exit 4 when execution failed and exit 3 for input or
// output validation failures.
func shapedExit(res shaping.Result) error {
	if res.OK {
		return nil
	}
	for _, fe := range res.Errors {
		if fe.Path == shaping.RuntimePath {
			return cli.NewExitError("", exitRuntime)
		}
	}
	return cli.NewExitError("", exitValidation)
}

// readSource loads file with its includes expanded, or stdin for "-".
func readSource(cfg *config.Config, file string) (source, name string, err error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", "", err
	}
	x := &include.Expander{FS: osfs.New("/"), Roots: cfg.IncludeRoots}
	source, err = x.Expand(abs)
	if err != nil {
		return "", "", err
	}
	return source, file, nil
}

func readSnapshot(path string) (value.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Map{}, err
	}
	m, err := value.DecodeSnapshot(data)
	if err != nil {
		return value.Map{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func writeSnapshot(path string, snap value.Map) error {
	data, err := value.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
