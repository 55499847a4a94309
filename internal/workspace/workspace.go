package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

// Clone describes one directory under the clone root.
type Clone struct {
	ID      uuid.UUID
	Path    string
	ModTime time.Time
}

// Manager handles clone root operations.
type Manager struct {
	root string
}

// NewManager creates a manager for root.
func NewManager(root string) *Manager {
	if root == "" {
		root = filepath.Join(os.TempDir(), "code-lens")
	}
	return &Manager{root: root}
}

// Root returns the clone root.
func (m *Manager) Root() string { return m.root }

// Ensure creates the clone root if needed.
func (m *Manager) Ensure() error {
	if err := os.MkdirAll(m.root, 0o750); err != nil {
		return errors.StorageError("failed to create clone root").WithCause(err).
			WithContext("path", m.root).
			Build()
	}
	slog.Info("Using clone root", logfields.Path(m.root))
	return nil
}

// Clones lists clone directories, oldest first. Entries whose name is not a
// repository id are ignored.
func (m *Manager) Clones() ([]Clone, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("failed to read clone root").WithCause(err).
			WithContext("path", m.root).
			Build()
	}

	clones := make([]Clone, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, perr := uuid.Parse(e.Name())
		if perr != nil {
			continue
		}
		info, ierr := e.Info()
		if ierr != nil {
			continue
		}
		clones = append(clones, Clone{ID: id, Path: filepath.Join(m.root, e.Name()), ModTime: info.ModTime()})
	}
	sort.Slice(clones, func(i, j int) bool { return clones[i].ModTime.Before(clones[j].ModTime) })
	return clones, nil
}

// Remove deletes the clone directory for id. A missing directory is not an error.
func (m *Manager) Remove(id uuid.UUID) error {
	path := filepath.Join(m.root, id.String())
	if err := os.RemoveAll(path); err != nil {
		return errors.StorageError("failed to remove clone").WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}

// Sweep removes clones last modified before now minus retention and returns
// the removed ids. Failures on individual clones are logged and skipped.
func (m *Manager) Sweep(ctx context.Context, retention time.Duration, now time.Time) ([]uuid.UUID, error) {
	clones, err := m.Clones()
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-retention)

	var removed []uuid.UUID
	for _, c := range clones {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !c.ModTime.Before(cutoff) {
			break
		}
		if rerr := m.Remove(c.ID); rerr != nil {
			slog.Warn("Failed to remove expired clone", logfields.Path(c.Path), logfields.Error(rerr))
			continue
		}
		slog.Info("Removed expired clone", logfields.RepoID(c.ID.String()), logfields.Path(c.Path))
		removed = append(removed, c.ID)
	}
	return removed, nil
}
