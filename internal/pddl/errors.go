package pddl

import (
	"fmt"
	"strings"
)

// LoadError reports that a domain or problem file could not be turned into a
// planning model.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load pddl: %v", e.Err)
	}
	return fmt.Sprintf("load pddl %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NonASCIIError lists offsets of non-ASCII bytes found in an input that was
// not normalised.
type NonASCIIError struct {
	Offsets []int
	Total   int
}

func (e *NonASCIIError) Error() string {
	parts := make([]string, 0, len(e.Offsets))
	for _, off := range e.Offsets {
		parts = append(parts, fmt.Sprint(off))
	}
	msg := fmt.Sprintf("non-ASCII characters at byte offsets %s", strings.Join(parts, ", "))
	if e.Total > len(e.Offsets) {
		msg += fmt.Sprintf(" (and %d more)", e.Total-len(e.Offsets))
	}
	return msg
}
