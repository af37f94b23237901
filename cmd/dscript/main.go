// Command dscript is the dscript CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/dscript/pkg/config"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/runtime"
)

// Exit codes.
const (
	exitOK         = 0
	exitUsage      = 1
	exitSyntax     = 2
	exitValidation = 3
	exitRuntime    = 4
)

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: int(log15.LvlWarn),
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (default: .dscript.toml, then ~/.dscript/config.toml)",
	}
	prettyFlag = cli.BoolFlag{
		Name:  "pretty",
		Usage: "Human readable output instead of JSON",
	}
	modeFlag = cli.StringFlag{
		Name:  "mode",
		Usage: "Evaluation mode: strict or inference",
	}
	maxDepthFlag = cli.IntFlag{
		Name:  "max-depth",
		Usage: "Maximum user function call depth",
	}
	includeFlag = cli.StringSliceFlag{
		Name:  "include",
		Usage: "Additional include root (repeatable)",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(exitUsage)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dscript"
	app.Usage = "run and check dscript programs"
	app.Version = "0.1.0"
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{verbosityFlag, configFlag}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx.GlobalInt(verbosityFlag.Name))
		return nil
	}
	app.Commands = []cli.Command{
		runCommand,
		checkCommand,
		fmtCommand,
		replCommand,
	}
	return app
}

func setupLogging(verbosity int) {
	log15.Root().SetHandler(log15.LvlFilterHandler(
		log15.Lvl(verbosity),
		log15.StreamHandler(os.Stderr, log15.TerminalFormat()),
	))
}

// loadConfig resolves the configuration for a command: an explicit --config
// file, or the project/user lookup from the working directory. Command flags
// override file values.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if path = ctx.GlobalString(configFlag.Name); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cwd, _ := os.Getwd()
		cfg, path, err = config.Load(cwd)
	}
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(path)
	if path != "" {
		log15.Debug("Loaded configuration", "file", path)
	}

	if ctx.IsSet(modeFlag.Name) {
		cfg.Mode = ctx.String(modeFlag.Name)
	}
	if ctx.IsSet(maxDepthFlag.Name) {
		cfg.MaxCallDepth = ctx.Int(maxDepthFlag.Name)
	}
	for _, root := range ctx.StringSlice(includeFlag.Name) {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		cfg.IncludeRoots = append(cfg.IncludeRoots, root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cfg *config.Config, sourceName string, opts ...runtime.Option) (*runtime.Engine, error) {
	opts = append([]runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithSourceName(sourceName),
		runtime.WithLogger(log15.New("module", "engine")),
	}, opts...)
	engine := runtime.New(opts...)
	if len(cfg.Shapes) > 0 {
		if err := engine.LoadShapes(cfg.Shapes...); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// exitCodeFor maps a diagnostic code to the process exit code.
func exitCodeFor(code string) int {
	switch code {
	case diagnostics.ELex, diagnostics.EParse,
		diagnostics.ERedeclared, diagnostics.EFnDup, diagnostics.EClassDup,
		diagnostics.EMethodDup, diagnostics.EShadowBuiltin:
		return exitSyntax
	case diagnostics.EValidation:
		return exitValidation
	default:
		return exitRuntime
	}
}

// fail prints err to the app's error writer and returns the matching exit
// error.
func fail(ctx *cli.Context, err error, pretty bool) error {
	var d *diagnostics.Error
	if errors.As(err, &d) {
		fmt.Fprintln(ctx.App.ErrWriter, diagnostics.FormatDiagnostic(d.Diagnostic, pretty))
		return cli.NewExitError("", exitCodeFor(d.Code))
	}
	fmt.Fprintln(ctx.App.ErrWriter, "error:", err)
	return cli.NewExitError("", exitUsage)
}

func usageError(ctx *cli.Context, format string, args ...any) error {
	fmt.Fprintf(ctx.App.ErrWriter, format+"\n", args...)
	return cli.NewExitError("", exitUsage)
}
