package evaluator

import (
	"strings"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// DefaultMaxCallDepth is the call-depth limit used when none is configured.
const DefaultMaxCallDepth = 64

// Mode selects which dynamic dispatch forms are available to a script.
type Mode int

const (
	// Strict allows only direct calls by declared name.
	Strict Mode = iota
	// Inference additionally allows call("name", ...) and calls through a
	// variable holding a function reference or a string.
	Inference
)

func (m Mode) String() string {
	if m == Inference {
		return "INFERENCE"
	}
	return "STRICT"
}

// ParseMode parses "strict" or "inference", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return Strict, nil
	case "inference":
		return Inference, nil
	}
	return Strict, diagnostics.Errorf(diagnostics.ERuntime, s, "unknown mode %q (want strict or inference)", s)
}

// callStack tracks active user-function calls. Its length is the current
// call depth.
type callStack struct {
	frames []string
	max    int
}

func (c *callStack) push(name string) error {
	if len(c.frames) >= c.max {
		return diagnostics.Errorf(diagnostics.ECallDepth, name, "maximum call depth of %d exceeded calling '%s'", c.max, name)
	}
	c.frames = append(c.frames, name)
	return nil
}

func (c *callStack) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

func (c *callStack) depth() int {
	return len(c.frames)
}

// current returns the innermost function name, or "" at top level.
func (c *callStack) current() string {
	if len(c.frames) == 0 {
		return ""
	}
	return c.frames[len(c.frames)-1]
}
