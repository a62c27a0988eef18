package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/sharecheck/pkg/scenario"
	"github.com/marmos91/sharecheck/pkg/statistics"
)

// Report is the printable form of a matrix run.
type Report struct {
	Summary scenario.Summary `json:"summary" yaml:"summary"`
	Cases   []CaseReport     `json:"cases" yaml:"cases"`
}

// CaseReport is one case of a Report.
type CaseReport struct {
	Label    string `json:"label" yaml:"label"`
	Status   string `json:"status" yaml:"status"`
	Expected int    `json:"expected" yaml:"expected"`

	// Code is nil when the case errored or was skipped before a decoded
	// response was available.
	Code *int `json:"code,omitempty" yaml:"code,omitempty"`

	DurationMs int64                  `json:"duration_ms" yaml:"duration_ms"`
	Names      map[string]string      `json:"names,omitempty" yaml:"names,omitempty"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Teardown   string                 `json:"teardown_error,omitempty" yaml:"teardown_error,omitempty"`
	Violations []statistics.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// NewReport builds a Report from run results, preserving their order.
func NewReport(results []scenario.Result) *Report {
	rep := &Report{
		Summary: scenario.Summarize(results),
		Cases:   make([]CaseReport, 0, len(results)),
	}
	for _, r := range results {
		cr := CaseReport{
			Label:      r.Case.Label,
			Status:     r.Status(),
			Expected:   r.Case.Expect,
			DurationMs: r.Duration.Milliseconds(),
			Names:      r.Names,
			Violations: r.Violations,
		}
		if r.Err == nil && !r.Skipped {
			code := r.Outcome.Code
			cr.Code = &code
		}
		if r.Err != nil {
			cr.Error = r.Err.Error()
		}
		if r.TeardownErr != nil {
			cr.Teardown = r.TeardownErr.Error()
		}
		rep.Cases = append(rep.Cases, cr)
	}
	return rep
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Summary.OK()
}

// Sections renders the case table, the schema violations when any, and the
// summary.
func (r *Report) Sections() []Section {
	cases := NewTableData("CASE", "STATUS", "EXPECTED", "CODE", "DURATION", "DETAIL")
	for _, c := range r.Cases {
		code := "-"
		if c.Code != nil {
			code = strconv.Itoa(*c.Code)
		}
		cases.AddRow(
			c.Label,
			c.Status,
			strconv.Itoa(c.Expected),
			code,
			(time.Duration(c.DurationMs) * time.Millisecond).String(),
			c.detail(),
		)
	}
	sections := []Section{{Table: cases}}

	violations := NewTableData("CASE", "FIELD", "REASON")
	for _, c := range r.Cases {
		for _, v := range c.Violations {
			violations.AddRow(c.Label, v.Field, v.Reason)
		}
	}
	if len(violations.Rows()) > 0 {
		sections = append(sections, Section{Title: "Schema violations:", Table: violations})
	}

	s := r.Summary
	summary := NewTableData("TOTAL", "PASSED", "FAILED", "ERRORED", "SKIPPED")
	summary.AddRow(
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Passed),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Errored),
		strconv.Itoa(s.Skipped),
	)
	return append(sections, Section{Table: summary})
}

func (c CaseReport) detail() string {
	var parts []string
	if c.Error != "" {
		parts = append(parts, c.Error)
	}
	if n := len(c.Violations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d schema violation(s)", n))
	}
	if c.Teardown != "" {
		parts = append(parts, "teardown: "+c.Teardown)
	}
	if len(c.Names) > 0 {
		parts = append(parts, formatNames(c.Names))
	}
	return strings.Join(parts, "; ")
}

func formatNames(names map[string]string) string {
	refs := make([]string, 0, len(names))
	for ref := range names {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	pairs := make([]string, len(refs))
	for i, ref := range refs {
		pairs[i] = scenario.RefPrefix + ref + "=" + names[ref]
	}
	return strings.Join(pairs, " ")
}
