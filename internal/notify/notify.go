// Package notify sends desktop notifications about watched analyses.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

// Notifier sends system notifications.
type Notifier struct {
	Enabled bool

	// run executes the platform command; tests replace it.
	run func(name string, args ...string) error
}

// Send sends a system notification.
// On macOS it uses osascript, elsewhere notify-send when installed. Other
// platforms are a no-op.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.Enabled {
		return nil
	}
	run := n.run
	if run == nil {
		run = execRun
	}

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escape(message), escape(title))
		return wrap(run("osascript", "-e", script))
	case "linux", "freebsd", "openbsd":
		if _, err := exec.LookPath("notify-send"); err != nil && n.run == nil {
			return nil
		}
		return wrap(run("notify-send", title, message))
	default:
		return nil
	}
}

func execRun(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func wrap(err error) error {
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Change describes how a re-analysis compares to the previous one. It
// returns ok=false when there is nothing worth a notification.
func Change(prev *report.Result, cur report.Result) (title, message string, ok bool) {
	if cur.Failed() {
		return "pmetrics: analysis failed", firstLine(cur.PlanningError, cur.FormulaError), true
	}
	if prev == nil {
		return "", "", false
	}

	var parts []string
	if p, c := prev.Planning, cur.Planning; p != nil && c != nil && p.EstimatedComplexity != c.EstimatedComplexity {
		parts = append(parts, fmt.Sprintf("planning complexity %.2f → %.2f", p.EstimatedComplexity, c.EstimatedComplexity))
	}
	if p, c := prev.Formula, cur.Formula; p != nil && c != nil && p.EstimatedComplexity != c.EstimatedComplexity {
		parts = append(parts, fmt.Sprintf("formula complexity %.2f → %.2f", p.EstimatedComplexity, c.EstimatedComplexity))
	}
	if prev.Failed() && len(parts) == 0 {
		return "pmetrics: analysis recovered", "inputs load again", true
	}
	if len(parts) == 0 {
		return "", "", false
	}
	return "pmetrics: metrics changed", strings.Join(parts, ", "), true
}

func firstLine(values ...string) string {
	for _, v := range values {
		if v != "" {
			line, _, _ := strings.Cut(v, "\n")
			return line
		}
	}
	return ""
}
