package sanitize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newFixture(t *testing.T, global string) (string, *Sanitizer) {
	t.Helper()
	dir := t.TempDir()
	ignoreFile := filepath.Join(dir, "rignore")
	require.NoError(t, os.WriteFile(ignoreFile, []byte(global), 0o644))
	clone := filepath.Join(dir, "clone")
	require.NoError(t, os.MkdirAll(clone, 0o755))
	return clone, New(Options{
		GlobalIgnoreFile: ignoreFile,
		LocalIgnoreFile:  ".code-lens-ignore",
		MaxFileSizeMB:    50,
	})
}

func TestSanitize_RemovesMatchedFilesAndDirectories(t *testing.T) {
	clone, s := newFixture(t, "# policy\n.git/\nnode_modules/\n*.log\n")
	writeFile(t, clone, ".git/HEAD", "ref")
	writeFile(t, clone, "node_modules/lib/index.js", "x")
	writeFile(t, clone, "src/main.go", "package main")
	writeFile(t, clone, "logs/app.log", "line")
	writeFile(t, clone, "README.md", "# readme")

	report, err := s.Sanitize(context.Background(), clone)
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(clone, ".git"))
	assert.NoDirExists(t, filepath.Join(clone, "node_modules"))
	assert.NoFileExists(t, filepath.Join(clone, "logs", "app.log"))
	assert.DirExists(t, filepath.Join(clone, "logs"))
	assert.FileExists(t, filepath.Join(clone, "src", "main.go"))
	assert.FileExists(t, filepath.Join(clone, "README.md"))

	assert.ElementsMatch(t, []string{".git", "node_modules", filepath.Join("logs", "app.log")}, report.Removed)
	assert.Equal(t, 3, report.Patterns)
	assert.Equal(t, 2, report.Files)
}

func TestSanitize_MatchedDirectoryNotDescended(t *testing.T) {
	clone, s := newFixture(t, "vendor\nvendor/*\n")
	writeFile(t, clone, "vendor/a.txt", "a")

	report, err := s.Sanitize(context.Background(), clone)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(clone, "vendor"))
	assert.Equal(t, []string{"vendor"}, report.Removed)
}

func TestSanitize_LocalOverrideFile(t *testing.T) {
	clone, s := newFixture(t, "*.bin\n")
	writeFile(t, clone, ".code-lens-ignore", "fixtures/\n# keep docs\n")
	writeFile(t, clone, "fixtures/big.json", "{}")
	writeFile(t, clone, "docs/guide.md", "guide")

	_, err := s.Sanitize(context.Background(), clone)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(clone, "fixtures"))
	assert.FileExists(t, filepath.Join(clone, "docs", "guide.md"))
}

func TestSanitize_RootNeverRemoved(t *testing.T) {
	clone, s := newFixture(t, "*\n")
	writeFile(t, clone, "a/b.txt", "x")

	_, err := s.Sanitize(context.Background(), clone)
	require.NoError(t, err)
	assert.DirExists(t, clone)
	entries, err := os.ReadDir(clone)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitize_OversizedFileFails(t *testing.T) {
	clone, s := newFixture(t, ".git/\n")
	big := filepath.Join(clone, "assets", "video.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(big), 0o755))
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(60*bytesPerMB))
	require.NoError(t, f.Close())

	_, err = s.Sanitize(context.Background(), clone)
	require.Error(t, err)

	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategorySanitization, c.Category())
	path, _ := c.Context().GetString("path")
	assert.Equal(t, filepath.Join("assets", "video.mp4"), path)
	limit, _ := c.Context().Get("limit_mb")
	assert.EqualValues(t, 50, limit)
	assert.Contains(t, err.Error(), `"assets/video.mp4"`)
	assert.Contains(t, err.Error(), "60 MB > 50 MB")
}

func TestSanitize_OversizedButIgnoredFileIsRemoved(t *testing.T) {
	clone, s := newFixture(t, "*.iso\n")
	big := filepath.Join(clone, "disk.iso")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(60*bytesPerMB))
	require.NoError(t, f.Close())

	_, err = s.Sanitize(context.Background(), clone)
	require.NoError(t, err)
	assert.NoFileExists(t, big)
}

func TestSanitize_FileAtLimitPasses(t *testing.T) {
	clone, s := newFixture(t, "")
	p := filepath.Join(clone, "exact.bin")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(50*bytesPerMB+1))
	require.NoError(t, f.Close())

	_, err = s.Sanitize(context.Background(), clone)
	require.NoError(t, err)
}

func TestSanitize_MissingCloneIsSanitizationError(t *testing.T) {
	_, s := newFixture(t, "")
	_, err := s.Sanitize(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategorySanitization))
}

func TestSanitize_MissingGlobalIgnoreIsConfigError(t *testing.T) {
	clone := t.TempDir()
	s := New(Options{GlobalIgnoreFile: filepath.Join(clone, "absent")})
	_, err := s.Sanitize(context.Background(), clone)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSanitize_CancelledContext(t *testing.T) {
	clone, s := newFixture(t, "*.tmp\n")
	writeFile(t, clone, "a.tmp", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sanitize(ctx, clone)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreview_ListsWithoutRemoving(t *testing.T) {
	clone, s := newFixture(t, "*.log\nbuild/\n")
	writeFile(t, clone, "a/b.txt", "keep")
	writeFile(t, clone, "a/ignored.log", "drop")
	writeFile(t, clone, "build/out.bin", "drop")

	matches, err := s.Preview(context.Background(), clone)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join("a", "ignored.log"), "build"}, matches)
	assert.FileExists(t, filepath.Join(clone, "a", "ignored.log"))
	assert.DirExists(t, filepath.Join(clone, "build"))
}
