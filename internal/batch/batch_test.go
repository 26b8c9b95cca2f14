package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const gripperDomain = `(define (domain gripper)
  (:requirements :typing)
  (:types room ball gripper)
  (:predicates (at-robby ?r - room) (at ?b - ball ?r - room) (free ?g - gripper) (carry ?b - ball ?g - gripper))
  (:action move :parameters (?from ?to - room)
    :precondition (at-robby ?from)
    :effect (and (at-robby ?to) (not (at-robby ?from))))
  (:action pick :parameters (?b - ball ?r - room ?g - gripper)
    :precondition (and (at ?b ?r) (at-robby ?r) (free ?g))
    :effect (and (carry ?b ?g) (not (at ?b ?r)) (not (free ?g)))))`

const gripperProblemTemplate = `(define (problem %s)
  (:domain gripper)
  (:objects rooma roomb - room left right - gripper %s)
  (:init (at-robby rooma) (free left) (free right))
  (:goal (at-robby roomb)))`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func gripperProblem(name, balls string) string {
	return fmt.Sprintf(gripperProblemTemplate, name, balls)
}

func TestRunSharesDomainParses(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"gripper/domain.pddl": gripperDomain,
		"gripper/p1.pddl":     gripperProblem("p1", "b1 - ball"),
		"gripper/p2.pddl":     gripperProblem("p2", "b1 b2 - ball"),
		"gripper/p3.pddl":     gripperProblem("p3", "b1 b2 b3 - ball"),
		"f.smt2":              "(declare-const x Int)(assert (> x 0))",
		"cases.yml": `
cases:
  - name: one
    domain: gripper/domain.pddl
    problem: gripper/p1.pddl
  - name: two
    domain: gripper/domain.pddl
    problem: gripper/p2.pddl
    smt: f.smt2
  - name: three
    domain: gripper/domain.pddl
    problem: gripper/p3.pddl
`,
	})
	manifest, err := LoadManifest(filepath.Join(dir, "cases.yml"))
	require.NoError(t, err)

	r := &Runner{Concurrency: 3}
	results, err := r.Run(context.Background(), manifest.Cases)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, r.DomainLoads())

	// move: rooms^2 = 4; pick: balls * rooms * grippers.
	for i, balls := range []int{1, 2, 3} {
		require.NotNil(t, results[i].Planning, "case %d", i)
		assert.Equal(t, 4+balls*2*2, results[i].Planning.GroundOperators)
		assert.Equal(t, 2, results[i].Planning.NumActions)
	}
	assert.Nil(t, results[0].Formula)
	require.NotNil(t, results[1].Formula)
	assert.Equal(t, 1, results[1].Formula.Variables)
}

func TestRunCollectsPerCaseErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"domain.pddl": gripperDomain,
		"good.pddl":   gripperProblem("good", "b1 - ball"),
		"bad.pddl":    "(define (problem bad) (:domain gripper) (:objects x - unicorn))",
		"bad.smt2":    "(assert (> y 0))",
	})
	cases := []Case{
		{Name: "good", Domain: filepath.Join(dir, "domain.pddl"), Problem: filepath.Join(dir, "good.pddl")},
		{Name: "bad", Domain: filepath.Join(dir, "domain.pddl"), Problem: filepath.Join(dir, "bad.pddl"), SMT: filepath.Join(dir, "bad.smt2")},
		{Name: "missing", Domain: filepath.Join(dir, "nope.pddl"), Problem: filepath.Join(dir, "good.pddl")},
	}

	r := &Runner{Concurrency: 2}
	results, err := r.Run(context.Background(), cases)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)

	assert.NotNil(t, results[0].Planning)
	assert.False(t, results[0].Failed())
	assert.Contains(t, results[1].PlanningError, `unknown type "unicorn"`)
	assert.Contains(t, results[1].FormulaError, `undeclared symbol "y"`)
	assert.Contains(t, results[2].PlanningError, "nope.pddl")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Runner{}).Run(ctx, []Case{{Name: "a", SMT: "x.smt2"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseManifestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "empty", body: "cases: []\n", want: []string{"cases: at least one case is required"}},
		{name: "bad yaml", body: "cases: [", want: []string{"yaml:"}},
		{
			name: "case problems",
			body: `
cases:
  - name: a
    domain: d.pddl
  - name: a
    smt: f.smt2
  - smt: g.smt2
  - name: empty
`,
			want: []string{
				"cases[0]: domain and problem must be given together",
				`cases[1].name: "a" duplicates cases[0]`,
				"cases[2].name: is required",
				"cases[3]: needs a domain/problem pair or an smt file",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.body), "m.yml")
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			require.Len(t, verrs, len(tt.want))
			for i, want := range tt.want {
				assert.Contains(t, verrs[i].Error(), want)
				assert.Equal(t, "m.yml", verrs[i].File)
			}
		})
	}
}

func TestParseManifestResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	m, err := ParseManifest([]byte("cases:\n  - name: x\n    smt: sub/f.smt2\n  - name: y\n    smt: /abs/g.smt2\n"), filepath.Join(dir, "m.yml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "f.smt2"), m.Cases[0].SMT)
	assert.Equal(t, "/abs/g.smt2", m.Cases[1].SMT)
	assert.Empty(t, m.Cases[0].Domain)
}
