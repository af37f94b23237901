package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/runtime"
	"github.com/thomasrohde/dscript/pkg/value"
)

const (
	historyFile = ".dscript_history"
	promptMain  = "> "
	promptCont  = "... "
)

var replCommand = cli.Command{
	Action: repl,
	Name:   "repl",
	Usage:  "Start an interactive session",
	Flags:  []cli.Flag{modeFlag, maxDepthFlag},
	Description: `Each accepted input is appended to the session program, which is re-run
from the start; bindings that changed are printed. Commands: :vars, :reset,
:source, :quit.`,
}

// session accumulates accepted inputs. Execution is deterministic, so
// re-running the whole program reproduces every earlier binding, functions
// and classes included.
type session struct {
	engine *runtime.Engine
	chunks []string
	snap   value.Map
}

func newSession(engine *runtime.Engine) *session {
	return &session{engine: engine, snap: value.NewMap()}
}

func (s *session) program(extra string) string {
	return strings.Join(append(append([]string(nil), s.chunks...), extra), "\n")
}

// eval runs the session program extended with chunk. On success the chunk is
// kept and the changed bindings are returned as "name = value" lines.
func (s *session) eval(ctx context.Context, chunk string) ([]string, error) {
	snap, err := s.engine.RunWith(ctx, s.program(chunk), value.NewMap())
	if err != nil {
		return nil, err
	}
	var changes []string
	for _, kv := range snap.Pairs() {
		if old, ok := s.snap.Get(kv.Key); ok && value.Equal(old, kv.Value) {
			continue
		}
		changes = append(changes, kv.Key+" = "+value.Format(kv.Value))
	}
	s.chunks = append(s.chunks, chunk)
	s.snap = snap
	return changes, nil
}

func (s *session) reset() {
	s.chunks = nil
	s.snap = value.NewMap()
}

func repl(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fail(ctx, err, true)
	}
	engine, err := newEngine(cfg, "<repl>")
	if err != nil {
		return fail(ctx, err, true)
	}
	sess := newSession(engine)
	out := ctx.App.Writer

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Fprintf(out, "dscript %s (%s mode), :quit to exit\n", ctx.App.Version, engine.Mode())
	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(out)
			break
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(code, ":") {
			if replCommandLine(out, sess, code) {
				break
			}
			continue
		}
		changes, err := sess.eval(context.Background(), code)
		if err != nil {
			printReplError(ctx.App.ErrWriter, err)
			continue
		}
		for _, c := range changes {
			fmt.Fprintln(out, c)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// replCommandLine handles ":" commands and reports whether to exit.
func replCommandLine(out io.Writer, sess *session, line string) bool {
	switch strings.Fields(line)[0] {
	case ":quit", ":q":
		return true
	case ":vars":
		printTable(out, sess.snap)
	case ":reset":
		sess.reset()
		fmt.Fprintln(out, "session cleared")
	case ":source":
		fmt.Fprintln(out, sess.program(""))
	default:
		fmt.Fprintln(out, "commands: :vars, :reset, :source, :quit")
	}
	return false
}

func printReplError(w io.Writer, err error) {
	fmt.Fprintln(w, diagnostics.FormatDiagnostic(diagnostics.As(err).Diagnostic, true))
}

// readInput reads lines until the buffer is not cut off mid-construct. It
// returns false on end of input.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src has unclosed brackets or an unterminated
// string.
func incomplete(src string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			}
		}
	}
	return inString || depth > 0
}
