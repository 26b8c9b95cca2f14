// Package pddl reads PDDL domain and problem files into the planning model.
package pddl

import (
	"os"

	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/planning"
)

const maxReportedOffsets = 10

// Reader loads PDDL files from disk.
type Reader struct {
	// NormalizeUmlauts transliterates German umlauts before parsing. Without it
	// any non-ASCII byte is an error.
	NormalizeUmlauts bool
	Logger           *zap.Logger
}

func (r *Reader) logger() *zap.Logger {
	if r == nil || r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Load reads a domain and a problem with umlaut normalization enabled.
func Load(domainPath, problemPath string) (*planning.Problem, error) {
	return (&Reader{NormalizeUmlauts: true}).Load(domainPath, problemPath)
}

// Load reads a domain and a problem and combines them.
func (r *Reader) Load(domainPath, problemPath string) (*planning.Problem, error) {
	domain, err := r.LoadDomain(domainPath)
	if err != nil {
		return nil, err
	}
	return r.LoadProblem(domain, problemPath)
}

// LoadDomain reads and parses a domain file.
func (r *Reader) LoadDomain(path string) (*Domain, error) {
	data, err := r.read(path)
	if err != nil {
		return nil, err
	}
	domain, err := ParseDomain(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	r.logger().Debug("pddl domain parsed",
		zap.String("path", path),
		zap.String("domain", domain.Name),
		zap.Int("types", len(domain.Types)),
		zap.Int("actions", len(domain.Actions)),
	)
	return domain, nil
}

// LoadProblem reads a problem file and grounds it against domain.
func (r *Reader) LoadProblem(domain *Domain, path string) (*planning.Problem, error) {
	data, err := r.read(path)
	if err != nil {
		return nil, err
	}
	problem, err := ParseProblem(domain, data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	r.logger().Debug("pddl problem parsed",
		zap.String("path", path),
		zap.String("problem", problem.Name),
		zap.Int("objects", len(problem.Objects)),
	)
	return problem, nil
}

func (r *Reader) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if r != nil && r.NormalizeUmlauts {
		data = NormalizeUmlauts(data)
	}
	if offsets, total := nonASCII(data, maxReportedOffsets); total > 0 {
		return nil, &LoadError{Path: path, Err: &NonASCIIError{Offsets: offsets, Total: total}}
	}
	return data, nil
}
