// Package watch reports content changes of a set of input files.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = time.Second

// fileState is what a poll remembers about one file. A missing file has an
// empty hash.
type fileState struct {
	ModTime time.Time
	Size    int64
	Hash    string
}

// Watcher detects changes to a fixed set of files by content hash.
type Watcher struct {
	Paths    []string
	Interval time.Duration
	Logger   *zap.Logger

	state map[string]fileState
}

// Poll compares every file against the previous poll and returns the paths
// whose content changed, appeared or disappeared. The first poll records the
// baseline and reports nothing.
func (w *Watcher) Poll() ([]string, error) {
	first := w.state == nil
	if first {
		w.state = make(map[string]fileState, len(w.Paths))
	}

	var changed []string
	for _, path := range w.Paths {
		prev, seen := w.state[path]
		cur, err := w.stat(path, prev)
		if err != nil {
			return nil, err
		}
		w.state[path] = cur
		if !first && (!seen || cur.Hash != prev.Hash) {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed, nil
}

// stat hashes path unless its size and modification time match prev.
func (w *Watcher) stat(path string, prev fileState) (fileState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if prev.Hash != "" && info.ModTime().Equal(prev.ModTime) && info.Size() == prev.Size {
		return prev, nil
	}
	hash, err := hashFile(path)
	if err != nil {
		return fileState{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return fileState{ModTime: info.ModTime(), Size: info.Size(), Hash: hash}, nil
}

// Run watches until ctx is done and calls onChange with each non-empty set of
// changed paths. Filesystem events on the files' directories trigger a poll
// right away; the ticker polls as well in case events are missed or
// unavailable. A baseline from an earlier Poll is kept. A poll error stops
// the loop; an onChange error is logged.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string) error) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if w.state == nil {
		if _, err := w.Poll(); err != nil {
			return err
		}
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	fsw, err := w.newFSWatcher()
	if err != nil {
		logger.Warn("filesystem events unavailable, polling only", zap.Error(err))
	} else {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	}
	logger.Info("watching files", zap.Strings("paths", w.Paths), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() error {
		changed, err := w.Poll()
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		logger.Debug("files changed", zap.Strings("paths", changed))
		if err := onChange(ctx, changed); err != nil {
			logger.Warn("change handler failed", zap.Error(err))
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !w.watches(event.Name) {
				continue
			}
			logger.Debug("fsnotify event", zap.String("op", event.Op.String()), zap.String("file", event.Name))
			if err := check(); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("fsnotify error", zap.Error(err))
		case <-ticker.C:
			if err := check(); err != nil {
				return err
			}
		}
	}
}

// newFSWatcher watches the directories holding the files, so editors that
// replace a file by rename are still seen.
func (w *Watcher) newFSWatcher() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	seen := make(map[string]bool)
	for _, path := range w.Paths {
		dir := filepath.Dir(path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fsw, nil
}

func (w *Watcher) watches(name string) bool {
	name = filepath.Clean(name)
	for _, path := range w.Paths {
		if filepath.Clean(path) == name {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
