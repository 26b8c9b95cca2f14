package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

const SnapshotSchemaVersion = 1

// Snapshot is the persisted, comparable form of a result.
type Snapshot struct {
	SchemaVersion int           `json:"schema_version"`
	CreatedAt     string        `json:"created_at"`
	Inputs        []string      `json:"inputs,omitempty"`
	Points        []MetricPoint `json:"points"`
}

// NewSnapshot captures res at time at.
func NewSnapshot(res Result, at time.Time) Snapshot {
	var inputs []string
	for _, in := range []string{res.Domain, res.Problem, res.SMT} {
		if in != "" {
			inputs = append(inputs, in)
		}
	}
	return Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		CreatedAt:     at.UTC().Format(time.RFC3339),
		Inputs:        inputs,
		Points:        res.Points(),
	}
}

// WriteSnapshot writes snapshot to path through a temp file and rename.
func WriteSnapshot(path string, snapshot Snapshot) error {
	if path == "" {
		return fmt.Errorf("snapshot path is required")
	}
	if snapshot.CreatedAt == "" {
		return fmt.Errorf("snapshot created_at is required")
	}
	snapshot.SchemaVersion = SnapshotSchemaVersion
	snapshot.Points = CanonicalizePoints(snapshot.Points)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by WriteSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.SchemaVersion != SnapshotSchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema_version %d", snap.SchemaVersion)
	}
	snap.Points = CanonicalizePoints(snap.Points)
	return &snap, nil
}

// Lines renders the points one per line. Sources are left out so snapshots of
// different inputs line up metric by metric.
func (s Snapshot) Lines() []string {
	lines := make([]string, 0, len(s.Points))
	for _, p := range CanonicalizePoints(s.Points) {
		key := p.Key
		if dims := dimensionsKey(p.Dimensions); dims != "" {
			key += "{" + dims + "}"
		}
		lines = append(lines, key+" = "+strconv.FormatFloat(p.Value, 'g', -1, 64))
	}
	return lines
}

// Diff returns a unified diff between two snapshots, or "" when their metrics
// agree.
func Diff(from, to *Snapshot, fromName, toName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        withNewlines(from.Lines()),
		B:        withNewlines(to.Lines()),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff snapshots: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
