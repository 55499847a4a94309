package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func makeClone(t *testing.T, root string, age time.Duration) uuid.UUID {
	t.Helper()
	id := uuid.New()
	dir := filepath.Join(root, id.String())
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o600))
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(dir, ts, ts))
	return id
}

func TestManager_ClonesSkipsForeignEntries(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	older := makeClone(t, root, 2*time.Hour)
	newer := makeClone(t, root, time.Minute)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-an-id"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, uuid.NewString()), nil, 0o600))

	clones, err := m.Clones()
	require.NoError(t, err)
	require.Len(t, clones, 2)
	require.Equal(t, older, clones[0].ID)
	require.Equal(t, newer, clones[1].ID)
}

func TestManager_ClonesMissingRoot(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent"))
	clones, err := m.Clones()
	require.NoError(t, err)
	require.Empty(t, clones)
}

func TestManager_EnsureAndRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repos")
	m := NewManager(root)
	require.NoError(t, m.Ensure())
	id := makeClone(t, root, 0)

	require.NoError(t, m.Remove(id))
	require.NoDirExists(t, filepath.Join(root, id.String()))
	require.NoError(t, m.Remove(id))
}

func TestManager_SweepRemovesOnlyExpired(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	expired := makeClone(t, root, 48*time.Hour)
	fresh := makeClone(t, root, time.Hour)

	removed, err := m.Sweep(context.Background(), 24*time.Hour, time.Now())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{expired}, removed)
	require.NoDirExists(t, filepath.Join(root, expired.String()))
	require.DirExists(t, filepath.Join(root, fresh.String()))
}

func TestNewJanitor_RejectsZeroRetention(t *testing.T) {
	_, err := NewJanitor(NewManager(t.TempDir()), 0, time.Minute)
	require.Error(t, err)
}

func TestJanitor_RunOnce(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	makeClone(t, root, 3*time.Hour)
	keep := makeClone(t, root, 0)

	j, err := NewJanitor(m, time.Hour, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, j.RunOnce(context.Background()))

	clones, err := m.Clones()
	require.NoError(t, err)
	require.Len(t, clones, 1)
	require.Equal(t, keep, clones[0].ID)
	require.NoError(t, j.Stop())
}

func TestJanitor_StartStop(t *testing.T) {
	j, err := NewJanitor(NewManager(t.TempDir()), time.Hour, time.Hour)
	require.NoError(t, err)
	require.NoError(t, j.Start(context.Background()))
	require.NoError(t, j.Stop())
}
