package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-workspace directory holding config, history and
// snapshots.
const StateDirName = ".pmetrics"

// Workspace defines workspace-relative paths for pmetrics runs.
type Workspace struct {
	Root         string
	StateDir     string
	ConfigPath   string
	SnapshotsDir string
}

// Resolve expands and validates the workspace root, ensuring it exists.
func Resolve(root string) (*Workspace, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", abs)
	}
	return newWorkspace(abs), nil
}

// EnsureDirs creates the state and snapshot directories.
func (w *Workspace) EnsureDirs() error {
	if w == nil {
		return fmt.Errorf("workspace is nil")
	}
	for _, dir := range []string{w.StateDir, w.SnapshotsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// ResolvePath returns an absolute path, resolving relative paths from the workspace root.
func (w *Workspace) ResolvePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	return ResolveFrom(w.Root, path)
}

// StatePath resolves path against the state directory, so a configured
// "history.db" lands in .pmetrics/history.db.
func (w *Workspace) StatePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	return ResolveFrom(w.StateDir, path)
}

// ResolveFrom resolves path relative to base after expanding a leading ~.
// Absolute paths are cleaned and returned as is; an empty path stays empty.
func ResolveFrom(base, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Abs(filepath.Join(base, expanded))
}

func newWorkspace(root string) *Workspace {
	state := filepath.Join(root, StateDirName)
	return &Workspace{
		Root:         root,
		StateDir:     state,
		ConfigPath:   filepath.Join(state, "config.yml"),
		SnapshotsDir: filepath.Join(state, "snapshots"),
	}
}

func resolveRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("workspace root is required")
	}
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return "", fmt.Errorf("unsupported home expansion: %s", path)
}
