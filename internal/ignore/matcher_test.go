package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

func TestCompile_SkipsCommentsAndBlanks(t *testing.T) {
	m := Compile("# comment", "", "   ", "*.log", "  node_modules/  ")
	assert.Equal(t, []string{"*.log", "node_modules/"}, m.Patterns())
	assert.Equal(t, 2, m.Len())
}

func TestMatch(t *testing.T) {
	m := Compile(
		"*.log",
		"node_modules/",
		"**/dist",
		"build/**",
		"secret.txt",
		"*.{png,jpg}",
	)

	cases := []struct {
		path string
		want bool
	}{
		{"debug.log", true},
		{"a/b/trace.log", true},
		{"node_modules", true},
		{"web/node_modules", false},
		{"dist", true},
		{"pkg/dist", true},
		{"build", true},
		{"build/out/x.o", true},
		{"secret.txt", true},
		{"nested/secret.txt", false},
		{"img/logo.png", true},
		{"img/logo.PNG", false},
		{"README.md", false},
		{"", false},
		{".", false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, m.Match(tc.path))
		})
	}
}

func TestMatch_MalformedLineSkipped(t *testing.T) {
	m := Compile("[unterminated", "*.tmp")
	assert.Equal(t, []string{"*.tmp"}, m.Patterns())
	assert.True(t, m.Match("x.tmp"))
	assert.False(t, m.Match("[unterminated"))
}

func TestMatch_NilAndEmpty(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything"))
	assert.False(t, Compile().Match("anything"))
}

func TestLoad_GlobalAndLocal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "rignore")
	require.NoError(t, os.WriteFile(global, []byte("# global\n.git/\n*.bin\n"), 0o644))

	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(repo, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, ".code-lens-ignore"), []byte("fixtures/\n"), 0o644))

	m, err := Load(global, repo, ".code-lens-ignore")
	require.NoError(t, err)
	assert.Equal(t, []string{".git/", "*.bin", "fixtures/"}, m.Patterns())
	assert.True(t, m.Match(".git"))
	assert.True(t, m.Match("fixtures"))
	assert.True(t, m.Match("assets/blob.bin"))
}

func TestLoad_LocalOptional(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "rignore")
	require.NoError(t, os.WriteFile(global, []byte("*.bin\n"), 0o644))

	m, err := Load(global, filepath.Join(dir, "no-repo"), ".code-lens-ignore")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestLoad_MissingGlobalIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), "", "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
