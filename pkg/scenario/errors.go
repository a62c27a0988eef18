package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrLiteralNameConflict is returned by a parallel Run when two cases use
// the same literal folder name and could interfere.
var ErrLiteralNameConflict = errors.New("cases share a literal folder name")

// ErrAborted marks a run stopped before every case started.
var ErrAborted = errors.New("run aborted")

// checkLiteralConflicts reports literal folder names used by more than one
// case.
func checkLiteralConflicts(cases []Case) error {
	owners := make(map[string]string)
	conflicts := make(map[string][]string)
	for _, c := range cases {
		seen := make(map[string]bool)
		for _, name := range c.literals() {
			if seen[name] {
				continue
			}
			seen[name] = true
			if first, ok := owners[name]; ok {
				if len(conflicts[name]) == 0 {
					conflicts[name] = append(conflicts[name], first)
				}
				conflicts[name] = append(conflicts[name], c.Label)
				continue
			}
			owners[name] = c.Label
		}
	}
	if len(conflicts) == 0 {
		return nil
	}

	names := make([]string, 0, len(conflicts))
	for n := range conflicts {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%q used by %s", n, strings.Join(quoteAll(conflicts[n]), ", ")))
	}
	return fmt.Errorf("%w: %s", ErrLiteralNameConflict, strings.Join(parts, "; "))
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
