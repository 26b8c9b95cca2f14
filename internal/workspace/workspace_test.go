package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLaysOutStateDir(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".pmetrics"), ws.StateDir)
	assert.Equal(t, filepath.Join(root, ".pmetrics", "config.yml"), ws.ConfigPath)

	require.NoError(t, ws.EnsureDirs())
	info, err := os.Stat(ws.SnapshotsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveRejectsFilesAndEmptyRoots(t *testing.T) {
	_, err := Resolve("  ")
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Resolve(file)
	require.ErrorContains(t, err, "not a directory")
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	got, err := ws.ResolvePath("models/d.pddl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "models", "d.pddl"), got)

	got, err = ws.StatePath("history.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".pmetrics", "history.db"), got)

	got, err = ws.StatePath("/var/tmp/h.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/h.db", got)

	got, err = ws.ResolvePath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = ResolveFrom(root, "~/x.smt2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.smt2"), got)

	_, err = ResolveFrom(root, "~other/x")
	require.ErrorContains(t, err, "unsupported home expansion")
}
