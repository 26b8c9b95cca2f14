package harness

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"
)

// Result is the outcome of one CLI invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Output returns stdout and stderr for failure messages.
func (r Result) Output() string {
	return "stdout:\n" + r.Stdout + "\nstderr:\n" + r.Stderr
}

// Run executes the CLI in workDir. Variables from the caller's environment
// that would change pmetrics defaults are cleared.
func Run(t *testing.T, binPath, workDir string, args ...string) Result {
	t.Helper()
	return RunWithEnv(t, binPath, workDir, nil, args...)
}

// RunWithEnv executes the CLI with environment overrides.
func RunWithEnv(t *testing.T, binPath, workDir string, env map[string]string, args ...string) Result {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = workDir
	cmd.Env = mergeEnv(env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("run %s: %v", binPath, err)
		}
		res.Code = ee.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// MustRun executes the CLI and fails the test on a non-zero exit code.
func MustRun(t *testing.T, binPath, workDir string, args ...string) Result {
	t.Helper()
	res := Run(t, binPath, workDir, args...)
	if res.Code != 0 {
		t.Fatalf("pmetrics %s: exit code %d\n%s", strings.Join(args, " "), res.Code, res.Output())
	}
	return res
}

func mergeEnv(overrides map[string]string) []string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		key, val, _ := strings.Cut(entry, "=")
		if strings.HasPrefix(key, "PMETRICS_") {
			continue
		}
		env[key] = val
	}
	for k, v := range overrides {
		env[k] = v
	}

	merged := make([]string, 0, len(env))
	for k, v := range env {
		merged = append(merged, k+"="+v)
	}
	sort.Strings(merged)
	return merged
}
