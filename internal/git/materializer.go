package git

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

// Target identifies what to materialize.
type Target struct {
	ID        uuid.UUID
	URL       string
	Branch    string
	CommitSHA string
}

// Materializer clones repositories under a root directory, one subdirectory
// per repository id.
type Materializer struct {
	root string
	auth transport.AuthMethod
}

// Option customizes a Materializer.
type Option func(*Materializer)

// WithAuth sets the transport authentication used for every clone.
func WithAuth(auth transport.AuthMethod) Option {
	return func(m *Materializer) { m.auth = auth }
}

// NewMaterializer creates a Materializer rooted at cloneRoot.
func NewMaterializer(cloneRoot string, opts ...Option) *Materializer {
	m := &Materializer{root: cloneRoot}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Root returns the clone root directory.
func (m *Materializer) Root() string { return m.root }

// PathFor returns the deterministic clone directory for id.
func (m *Materializer) PathFor(id uuid.UUID) string {
	return filepath.Join(m.root, id.String())
}

// Materialize replaces any existing clone for t.ID with a fresh clone pinned
// at t.CommitSHA and returns its path. HEAD is left detached at the commit.
func (m *Materializer) Materialize(ctx context.Context, t Target) (string, error) {
	start := time.Now()
	path := m.PathFor(t.ID)

	if _, err := os.Stat(path); err == nil {
		slog.Info("Removing existing repository directory", logfields.Path(path))
		if err := os.RemoveAll(path); err != nil {
			return "", fsError(err, "failed to remove existing clone", path)
		}
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return "", fsError(err, "failed to create clone directory", path)
	}

	slog.Debug("Cloning repository",
		logfields.URL(t.URL),
		logfields.Branch(t.Branch),
		logfields.Path(path))

	opts := &git.CloneOptions{URL: t.URL, Auth: m.auth}
	if t.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(t.Branch)
	}
	repo, err := git.PlainCloneContext(ctx, path, false, opts)
	if err != nil {
		return "", ClassifyGitError(err, "clone", t.URL)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(t.CommitSHA))
	if err != nil {
		return "", badRevision(err, t)
	}
	if _, err := repo.CommitObject(*hash); err != nil {
		return "", badRevision(err, t)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", ClassifyGitError(err, "checkout", t.URL)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", ClassifyGitError(err, "checkout", t.URL)
	}

	slog.Info("Completed clone",
		logfields.RepoID(t.ID.String()),
		logfields.URL(t.URL),
		logfields.Commit(hash.String()),
		logfields.Path(path),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return path, nil
}

func fsError(err error, msg, path string) error {
	return errors.MaterializationError(msg).WithCause(err).
		WithContext("reason", ReasonFilesystem).
		WithContext("path", path).
		Build()
}

func badRevision(err error, t Target) error {
	return errors.MaterializationError("commit not found in repository").WithCause(err).
		WithContext("reason", ReasonBadRevision).
		WithContext("url", t.URL).
		WithContext("commit", t.CommitSHA).
		Build()
}
