package commands

import (
	"errors"
	"fmt"

	"github.com/marmos91/sharecheck/pkg/scenario"
)

// Exit codes.
const (
	ExitOK = 0
	// ExitFailed means the appliance did not conform: at least one case
	// failed, errored or was skipped, or the statistics payload had
	// violations.
	ExitFailed = 1
	// ExitError means sharecheck itself could not do its job (bad
	// configuration, unreadable matrix, login failure).
	ExitError = 2
)

// NonConformanceError reports a completed check that found differences.
type NonConformanceError struct {
	Summary scenario.Summary
	// Violations is set by the stats command.
	Violations int
}

func (e *NonConformanceError) Error() string {
	if e.Violations > 0 {
		return fmt.Sprintf("statistics payload has %d schema violation(s)", e.Violations)
	}
	s := e.Summary
	return fmt.Sprintf("%d of %d case(s) did not pass (failed: %d, errored: %d, skipped: %d)",
		s.Total-s.Passed, s.Total, s.Failed, s.Errored, s.Skipped)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	var nc *NonConformanceError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &nc):
		return ExitFailed
	default:
		return ExitError
	}
}
