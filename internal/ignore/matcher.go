// Package ignore compiles ignore policies into an immutable glob matcher.
//
// Patterns come from a required global policy file and an optional file
// inside the repository being processed. Blank lines and lines starting with
// '#' are skipped. Wildcards match across path separators, so "*.log"
// matches "a/b/c.log" as well as "c.log".
package ignore

import (
	"bufio"
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

// Matcher is a compiled, read-only ignore pattern set. It is safe for
// concurrent use.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// Load reads the global policy file (required) and the repository-local
// override at repoRoot/localName (optional) and compiles both.
func Load(globalPath, repoRoot, localName string) (*Matcher, error) {
	global, err := os.ReadFile(globalPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read required ignore file").
			WithContext("path", globalPath).
			Build()
	}

	sources := [][]byte{global}
	sourceNames := []string{globalPath}

	if localName != "" && repoRoot != "" {
		localPath := filepath.Join(repoRoot, localName)
		local, err := os.ReadFile(localPath)
		switch {
		case err == nil:
			slog.Debug("Loading repository ignore patterns", logfields.Path(localPath))
			sources = append(sources, local)
			sourceNames = append(sourceNames, localPath)
		case os.IsNotExist(err):
		default:
			slog.Debug("Optional ignore file unreadable", logfields.Path(localPath), logfields.Error(err))
		}
	}

	m := &Matcher{}
	for i, src := range sources {
		m.add(sourceNames[i], src)
	}
	return m, nil
}

// Compile builds a matcher from in-memory lines. Malformed patterns are
// logged and skipped.
func Compile(lines ...string) *Matcher {
	m := &Matcher{}
	m.add("inline", []byte(strings.Join(lines, "\n")))
	return m
}

func (m *Matcher) add(source string, content []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		g, err := glob.Compile(line)
		if err != nil {
			slog.Warn("Invalid glob pattern skipped",
				logfields.Path(source),
				logfields.Pattern(line),
				logfields.Error(err))
			continue
		}
		m.patterns = append(m.patterns, line)
		m.globs = append(m.globs, g)

		// "**/x" also matches "x" at the root.
		if rest, ok := strings.CutPrefix(line, "**/"); ok && rest != "" {
			if rg, err := glob.Compile(rest); err == nil {
				m.globs = append(m.globs, rg)
			}
		}
	}
}

// Patterns returns the accepted pattern lines in load order.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// Len reports how many pattern lines were accepted.
func (m *Matcher) Len() int { return len(m.patterns) }

// Match reports whether relPath (relative to the clone root) is ignored.
// The path is tested as-is and with a trailing separator so that
// directory-style patterns such as "node_modules/" apply.
func (m *Matcher) Match(relPath string) bool {
	if m == nil || len(m.globs) == 0 {
		return false
	}
	p := filepath.ToSlash(relPath)
	if p == "" || p == "." {
		return false
	}
	withSlash := p
	if !strings.HasSuffix(withSlash, "/") {
		withSlash += "/"
	}
	for _, g := range m.globs {
		if g.Match(p) || g.Match(withSlash) {
			return true
		}
	}
	return false
}
