package integration_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/integration/harness"
)

func TestCLISmoke(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := harness.Workspace(t, "workspace-min")

	res := harness.MustRun(t, binPath, workspace, "--help")
	if !strings.Contains(res.Stdout, "Structural complexity metrics") {
		t.Fatalf("expected help output to include header\n%s", res.Output())
	}

	res = harness.MustRun(t, binPath, workspace,
		"analyze",
		"-d", "models/elevator/domain.pddl",
		"-p", "models/elevator/p01.pddl",
		"-s", "models/elevator/p01.smt2",
		"--output", ".pmetrics/snapshots/p01.json",
	)
	for _, want := range []string{
		"PDDL Metrics:",
		"Total Ground Operators: 30",
		"Analyzing SMT file: " + filepath.Join(workspace, "models", "elevator", "p01.smt2"),
		"Free Variables: 3",
		"Constraints: 3",
		"AST Depth:",
	} {
		if !strings.Contains(res.Stdout, want) {
			t.Fatalf("analyze output missing %q\n%s", want, res.Output())
		}
	}

	snapshotPath := filepath.Join(workspace, ".pmetrics", "snapshots", "p01.json")
	if _, err := os.Stat(snapshotPath); err != nil {
		t.Fatalf("snapshot not written at %s: %v", snapshotPath, err)
	}

	res = harness.MustRun(t, binPath, workspace,
		"pddl", "models/elevator/domain.pddl", "models/elevator/p02.pddl",
		"--output", ".pmetrics/snapshots/p02.json",
	)
	if !strings.Contains(res.Stdout, "Total Ground Operators: 56") {
		t.Fatalf("pddl output missing ground operators\n%s", res.Output())
	}

	res = harness.MustRun(t, binPath, workspace, "diff", ".pmetrics/snapshots/p01.json", ".pmetrics/snapshots/p02.json")
	if !strings.Contains(res.Stdout, "-planning.ground_operators = 30") || !strings.Contains(res.Stdout, "+planning.ground_operators = 56") {
		t.Fatalf("diff output missing ground operator change\n%s", res.Output())
	}

	historyPath := filepath.Join(workspace, ".pmetrics", "history.db")
	requireRuns(t, historyPath, map[string]int{"analyze": 1, "pddl": 1})

	res = harness.MustRun(t, binPath, workspace, "history", "list", "--format", "json")
	var runs []struct {
		ID      string `json:"id"`
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &runs); err != nil {
		t.Fatalf("decode history list: %v\n%s", err, res.Output())
	}
	if len(runs) != 2 || runs[0].Command != "pddl" {
		t.Fatalf("unexpected history list %+v", runs)
	}

	res = harness.MustRun(t, binPath, workspace, "history", "show", runs[1].ID)
	if !strings.Contains(res.Stdout, "Free Variables: 3") {
		t.Fatalf("history show missing formula metrics\n%s", res.Output())
	}

	engineHistory := filepath.Join(harness.RepoRoot(t), ".pmetrics")
	if _, err := os.Stat(engineHistory); err == nil {
		t.Fatalf("repo state dir should not exist at %s", engineHistory)
	} else if !os.IsNotExist(err) {
		t.Fatalf("stat repo state dir: %v", err)
	}
}

func TestCLIAnalyzeKeepsGoingAfterSMTError(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := harness.Workspace(t, "workspace-min")

	res := harness.MustRun(t, binPath, workspace, "--no-history",
		"analyze",
		"-d", "models/elevator/domain.pddl",
		"-p", "models/elevator/p01.pddl",
		"-s", "models/broken.smt2",
	)
	if !strings.Contains(res.Stdout, "Total Ground Operators: 30") {
		t.Fatalf("planning metrics missing\n%s", res.Output())
	}
	if !strings.Contains(res.Stdout, "Error loading the SMT file:") || !strings.Contains(res.Stdout, `undeclared symbol "floors"`) {
		t.Fatalf("smt error missing\n%s", res.Output())
	}
	if _, err := os.Stat(filepath.Join(workspace, ".pmetrics", "history.db")); !os.IsNotExist(err) {
		t.Fatalf("history db should not be written with --no-history: %v", err)
	}
}
