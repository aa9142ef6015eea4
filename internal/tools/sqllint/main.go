// Command sqllint checks that every SQL statement constant starts with a
// "--sql <uuid>" marker line and that no two statements share a marker.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlStartPattern   = regexp.MustCompile(`(?is)^\s*(select\s|insert\s+into\s|update\s+\S+\s+set\s|delete\s+from\s|with\s+\S+\s+as\s*\(|create\s+(table|index|unique|extension)\s|alter\s+table\s)`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

type linter struct {
	seen       map[string]string // marker -> first name
	violations []violation
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	os.Exit(run(targets, os.Stderr))
}

func run(targets []string, out io.Writer) int {
	l := &linter{seen: map[string]string{}}
	for _, target := range targets {
		if err := l.lintPath(target); err != nil {
			fmt.Fprintf(out, "sqllint: %v\n", err)
			return 1
		}
	}
	if len(l.violations) > 0 {
		fmt.Fprintln(out, "sqllint: SQL marker violations")
		for _, v := range l.violations {
			fmt.Fprintf(out, "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
		}
		return 1
	}
	return 0
}

func (l *linter) lintPath(target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return l.lintFile(target)
		}
		return nil
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return l.lintFile(path)
	})
}

func (l *linter) lintFile(path string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil {
				continue
			}
			name := specName(vs.Names, i)
			pos := fset.Position(bl.Pos())
			marker, body := splitMarker(raw)
			if !sqlStartPattern.MatchString(body) {
				continue
			}
			if !uuidMarkerPattern.MatchString(marker) {
				l.report(path, pos.Line, name, "missing or invalid --sql <uuid> marker")
				continue
			}
			if prev, dup := l.seen[marker]; dup {
				l.report(path, pos.Line, name, "marker already used by "+prev)
				continue
			}
			l.seen[marker] = name
		}
		return true
	})
	return nil
}

func (l *linter) report(file string, line int, name, message string) {
	l.violations = append(l.violations, violation{file: file, line: line, name: name, message: message})
}

// splitMarker returns the first line when it is a comment and the remaining statement.
func splitMarker(s string) (string, string) {
	s = strings.TrimLeft(s, "\n\r \t")
	if !strings.HasPrefix(s, "--") {
		return "", s
	}
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx]), s[idx+1:]
	}
	return strings.TrimSpace(s), ""
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func specName(idents []*ast.Ident, i int) string {
	if i < len(idents) && idents[i] != nil {
		return idents[i].Name
	}
	return "?"
}
