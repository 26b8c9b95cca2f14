// Package batch analyzes many planning and formula inputs described by a
// YAML manifest.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/workspace"
)

// Case is one analysis: a domain/problem pair, an SMT-LIB script, or both.
type Case struct {
	Name    string `yaml:"name" json:"name"`
	Domain  string `yaml:"domain,omitempty" json:"domain,omitempty"`
	Problem string `yaml:"problem,omitempty" json:"problem,omitempty"`
	SMT     string `yaml:"smt,omitempty" json:"smt,omitempty"`
}

// Manifest lists the cases of a batch run. Case paths are resolved against
// the manifest's directory.
type Manifest struct {
	Path  string
	Cases []Case
}

type rawManifest struct {
	Cases []Case `yaml:"cases"`
}

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// ParseManifest validates manifest text. source names the file in errors and
// anchors relative paths.
func ParseManifest(data []byte, source string) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ValidationErrors{{
			File:    source,
			Field:   "yaml",
			Message: err.Error(),
		}}
	}

	base := filepath.Dir(source)
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{File: source, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(raw.Cases) == 0 {
		add("cases", "at least one case is required")
	}

	seen := make(map[string]int, len(raw.Cases))
	cases := make([]Case, 0, len(raw.Cases))
	for i, c := range raw.Cases {
		field := fmt.Sprintf("cases[%d]", i)
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			add(field+".name", "is required")
		} else if prev, dup := seen[c.Name]; dup {
			add(field+".name", "%q duplicates cases[%d]", c.Name, prev)
		} else {
			seen[c.Name] = i
		}

		if (c.Domain == "") != (c.Problem == "") {
			add(field, "domain and problem must be given together")
		}
		if c.Domain == "" && c.Problem == "" && c.SMT == "" {
			add(field, "needs a domain/problem pair or an smt file")
		}

		for _, p := range []*string{&c.Domain, &c.Problem, &c.SMT} {
			resolved, err := workspace.ResolveFrom(base, *p)
			if err != nil {
				add(field, "%v", err)
				continue
			}
			*p = resolved
		}
		cases = append(cases, c)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Manifest{Path: source, Cases: cases}, nil
}
