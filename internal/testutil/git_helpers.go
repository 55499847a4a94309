// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SeedRepo is a local git repository usable as a clone source.
type SeedRepo struct {
	Path string
	Repo *git.Repository
}

// NewSeedRepo initializes a repository in a temporary directory. Its default
// branch is "master".
func NewSeedRepo(t *testing.T) *SeedRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	return &SeedRepo{Path: dir, Repo: repo}
}

// Commit writes files (relative path to content), stages them and commits.
// It returns the full commit hash.
func (s *SeedRepo) Commit(t *testing.T, msg string, files map[string]string) string {
	t.Helper()

	wt, err := s.Repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	for rel, content := range files {
		full := filepath.Join(s.Path, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
		if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
			t.Fatalf("add %s: %v", rel, err)
		}
	}
	h, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return h.String()
}
