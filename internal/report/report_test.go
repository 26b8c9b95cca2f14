package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/metrics"
)

func sampleResult() Result {
	return Result{
		Domain:  "domain.pddl",
		Problem: "problem.pddl",
		SMT:     "model.smt2",
		Planning: &metrics.PlanningReport{
			NumActions:          2,
			HasFluents:          true,
			GroundOperators:     4,
			BranchingFactor:     2,
			OperatorDensity:     4.0 / 3.0,
			EffectRatio:         1,
			EstimatedComplexity: 3,
		},
		Formula: &metrics.FormulaReport{
			Variables:           1,
			Constraints:         1,
			OperatorStatistics:  map[string]int{">": 1, "and": 2},
			UniqueSymbols:       1,
			UniqueRealConstants: 1,
			ASTDepth:            2,
			EstimatedComplexity: 1,
		},
	}
}

func TestTextMatchesAnalyzeOutput(t *testing.T) {
	want := strings.Join([]string{
		"Domain file: domain.pddl",
		"Problem file: problem.pddl",
		"PDDL Metrics:",
		"Total Ground Operators: 4",
		"Average Branching Factor: 2.00",
		"Operator Density: 1.33",
		"Positive to Negative Effect Ratio: 1.00",
		"Estimated Planning Complexity: 3.00",
		"Analyzing SMT file: model.smt2",
		"SMT Metrics:",
		"Free Variables: 1",
		"Constraints: 1",
		"Operator Statistics (OS): {>: 1, and: 2}",
		"(OS) Unique Symbols: 1",
		"(OS) unique_real_constants: 1",
		"AST Depth: 2",
		"Estimated Complexity: 1.00",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, Text(sampleResult())); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestTextReportsLoadErrorsSeparately(t *testing.T) {
	res := Result{
		Domain:        "d.pddl",
		Problem:       "p.pddl",
		PlanningError: "load pddl d.pddl: boom",
		SMT:           "f.smt2",
		Formula:       sampleResult().Formula,
	}
	out := Text(res)
	assert.Contains(t, out, "Error loading the PDDL files: load pddl d.pddl: boom\n")
	assert.NotContains(t, out, "PDDL Metrics:")
	assert.Contains(t, out, "SMT Metrics:")
	assert.True(t, res.Failed())
}

func TestRenderJSONAndYAML(t *testing.T) {
	res := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, res))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	planning := decoded["planning"].(map[string]any)
	assert.Equal(t, 4.0, planning["ground_operators"])
	assert.Equal(t, 2.0, decoded["formula"].(map[string]any)["ast_depth"])

	buf.Reset()
	require.NoError(t, Render(&buf, FormatYAML, res, res))
	var list []Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, res.Formula.OperatorStatistics, list[1].Formula.OperatorStatistics)
	assert.Equal(t, *res.Planning, *list[0].Planning)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "JSON": FormatJSON, " yaml ": FormatYAML, "text": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestPoints(t *testing.T) {
	points := sampleResult().Points()
	require.Len(t, points, 9+6+2)

	byKey := map[string]MetricPoint{}
	for _, p := range points {
		if p.Key != operatorKey {
			byKey[p.Key] = p
		}
	}
	assert.Equal(t, 4.0, byKey["planning.ground_operators"].Value)
	assert.Equal(t, 1.0, byKey["planning.has_fluents"].Value)
	assert.Equal(t, 0.0, byKey["planning.supports_temporal_logic"].Value)
	assert.Equal(t, "problem.pddl", byKey["planning.num_actions"].Source)
	assert.Equal(t, "model.smt2", byKey["formula.variables"].Source)

	assert.Equal(t, "formula.ast_depth", points[0].Key)
	assert.Equal(t, "planning.supports_temporal_logic", points[len(points)-1].Key)
	var ops []MetricPoint
	for _, p := range points {
		if p.Key == operatorKey {
			ops = append(ops, p)
		}
	}
	require.Len(t, ops, 2)
	assert.Equal(t, []Dimension{{Key: "operator", Value: ">"}}, ops[0].Dimensions)
	assert.Equal(t, 2.0, ops[1].Value)
}

func TestCanonicalizeDimensionsDropsEmptyAndDuplicates(t *testing.T) {
	got := CanonicalizeDimensions([]Dimension{
		{Key: "b", Value: "2"},
		{Key: " a ", Value: "1"},
		{Key: "a", Value: "1"},
		{Key: "", Value: "x"},
	})
	assert.Equal(t, []Dimension{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, got)
	assert.Nil(t, CanonicalizeDimensions(nil))
}

func TestSnapshotRoundTripAndDiff(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before := sampleResult()
	path := filepath.Join(dir, "nested", "before.json")
	require.NoError(t, WriteSnapshot(path, NewSnapshot(before, at)))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T12:00:00Z", loaded.CreatedAt)
	assert.Equal(t, []string{"domain.pddl", "problem.pddl", "model.smt2"}, loaded.Inputs)
	if diff := cmp.Diff(before.Points(), loaded.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is removed after rename")

	same, err := Diff(loaded, loaded, "a", "b")
	require.NoError(t, err)
	assert.Empty(t, same)

	after := sampleResult()
	after.Planning.GroundOperators = 6
	afterSnap := NewSnapshot(after, at)
	text, err := Diff(loaded, &afterSnap, "before.json", "after.json")
	require.NoError(t, err)
	assert.Contains(t, text, "--- before.json")
	assert.Contains(t, text, "+++ after.json")
	assert.Contains(t, text, "-planning.ground_operators = 4\n")
	assert.Contains(t, text, "+planning.ground_operators = 6\n")
	assert.Contains(t, afterSnap.Lines(), "formula.operator_statistics{operator=and} = 2")
}

func TestSnapshotValidation(t *testing.T) {
	require.Error(t, WriteSnapshot("", Snapshot{CreatedAt: "x"}))
	require.Error(t, WriteSnapshot(filepath.Join(t.TempDir(), "s.json"), Snapshot{}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"schema_version": 9, "created_at": "x", "points": []}`), 0o644))
	_, err := LoadSnapshot(bad)
	require.ErrorContains(t, err, "unsupported snapshot schema_version 9")

	unknown := filepath.Join(t.TempDir(), "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"schema_version": 1, "created_at": "x", "extra": 1}`), 0o644))
	_, err = LoadSnapshot(unknown)
	require.Error(t, err)
}
