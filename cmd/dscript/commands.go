package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/formatter"
)

var writeFlag = cli.BoolFlag{
	Name:  "write",
	Usage: "Rewrite the file in place",
}

var checkCommand = cli.Command{
	Action:    checkScript,
	Name:      "check",
	Usage:     "Parse and statically check a script without running it",
	ArgsUsage: "<file|->",
	Flags:     []cli.Flag{includeFlag, prettyFlag},
}

var fmtCommand = cli.Command{
	Action:    fmtScript,
	Name:      "fmt",
	Usage:     "Print a script in canonical form",
	ArgsUsage: "<file>",
	Flags:     []cli.Flag{writeFlag},
}

func checkScript(ctx *cli.Context) error {
	pretty := ctx.Bool(prettyFlag.Name)
	file := ctx.Args().First()
	if file == "" {
		return usageError(ctx, "usage: dscript check [options] <file|->")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	source, name, err := readSource(cfg, file)
	if err != nil {
		return fail(ctx, err, pretty)
	}
	engine, err := newEngine(cfg, name)
	if err != nil {
		return fail(ctx, err, pretty)
	}

	diags := engine.Check(source)
	if len(diags) > 0 {
		fmt.Fprintln(ctx.App.ErrWriter, diagnostics.FormatDiagnostics(diags, pretty))
		return cli.NewExitError("", exitSyntax)
	}
	if pretty {
		fmt.Fprintln(ctx.App.Writer, "No errors found.")
	} else {
		fmt.Fprintln(ctx.App.Writer, "[]")
	}
	return nil
}

func fmtScript(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		return usageError(ctx, "usage: dscript fmt [--write] <file>")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fail(ctx, err, false)
	}
	source := string(data)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fail(ctx, err, false)
	}
	engine, err := newEngine(cfg, file)
	if err != nil {
		return fail(ctx, err, false)
	}
	formatted, err := engine.Format(source)
	if err != nil {
		return fail(ctx, err, false)
	}
	if formatter.HasComments(source) {
		fmt.Fprintln(ctx.App.ErrWriter, "warning: comments are not preserved by the formatter")
	}

	if ctx.Bool(writeFlag.Name) {
		if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
			return fail(ctx, err, false)
		}
		return nil
	}
	fmt.Fprint(ctx.App.Writer, formatted)
	return nil
}
