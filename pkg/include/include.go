// Package include expands `#include "path"` directives in dscript sources.
package include

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// Directive is the line prefix that marks an include.
const Directive = "#include"

// Ext is the extension of files picked up by ExpandDir.
const Ext = ".ds"

// Expander inlines included files read from FS. Paths are resolved relative
// to the including file first, then against each of Roots in order.
type Expander struct {
	FS    billy.Filesystem
	Roots []string

	visited map[string]bool
}

// Expand returns the source of path with every include expanded.
func Expand(fs billy.Filesystem, path string) (string, error) {
	return (&Expander{FS: fs}).Expand(path)
}

// ExpandDir expands every *.ds file of dir in sorted name order.
func ExpandDir(fs billy.Filesystem, dir string) (string, error) {
	return (&Expander{FS: fs}).ExpandDir(dir)
}

// Expand returns the source of path with every include expanded. A file is
// expanded at most once per Expander, so repeated and cyclic includes
// contribute their text only the first time.
func (x *Expander) Expand(path string) (string, error) {
	var out bytes.Buffer
	if err := x.expand(&out, filepath.Clean(path)); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ExpandDir expands every *.ds file of dir in sorted name order.
func (x *Expander) ExpandDir(dir string) (string, error) {
	infos, err := x.FS.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, fi := range infos {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), Ext) {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)

	var out bytes.Buffer
	for _, name := range names {
		if err := x.expand(&out, filepath.Clean(x.FS.Join(dir, name))); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func (x *Expander) expand(out *bytes.Buffer, path string) error {
	if x.visited == nil {
		x.visited = make(map[string]bool)
	}
	if x.visited[path] {
		return nil
	}
	x.visited[path] = true

	data, err := util.ReadFile(x.FS, path)
	if err != nil {
		return err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		target, ok, err := parseDirective(text)
		if err != nil {
			return diagnostics.Errorf(diagnostics.ELex, path, "%s", err.Error()).
				At(ast.Span{File: path, StartLine: line, StartCol: 1})
		}
		if !ok {
			out.WriteString(text)
			out.WriteByte('\n')
			continue
		}
		resolved, found := x.resolve(filepath.Dir(path), target)
		if !found {
			return diagnostics.Errorf(diagnostics.ELex, target, "included file %q not found", target).
				At(ast.Span{File: path, StartLine: line, StartCol: 1})
		}
		if err := x.expand(out, resolved); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (x *Expander) resolve(dir, target string) (string, bool) {
	candidates := []string{x.FS.Join(dir, target)}
	if filepath.IsAbs(target) {
		candidates = []string{target}
	}
	for _, root := range x.Roots {
		candidates = append(candidates, x.FS.Join(root, target))
	}
	for _, c := range candidates {
		c = filepath.Clean(c)
		if fi, err := x.FS.Stat(c); err == nil && !fi.IsDir() {
			return c, true
		}
	}
	return "", false
}

// parseDirective recognises `#include "path"` with optional surrounding
// whitespace.
func parseDirective(line string) (string, bool, error) {
	rest := strings.TrimSpace(line)
	if !strings.HasPrefix(rest, Directive) {
		return "", false, nil
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, Directive))
	target, err := strconv.Unquote(rest)
	if err != nil || target == "" {
		return "", false, &os.PathError{Op: "include", Path: rest, Err: os.ErrInvalid}
	}
	return target, true, nil
}
