package output

import (
	"strconv"
	"strings"

	"github.com/marmos91/sharecheck/pkg/scenario"
	"github.com/marmos91/sharecheck/pkg/statistics"
)

// CaseList is the printable form of a declared matrix.
type CaseList []scenario.Case

// Headers implements TableRenderer.
func (l CaseList) Headers() []string {
	return []string{"CASE", "SETUP", "TEST", "EXPECT"}
}

// Rows implements TableRenderer.
func (l CaseList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		setup := make([]string, len(c.Setup))
		for i, st := range c.Setup {
			setup[i] = describeStep(st)
		}
		rows = append(rows, []string{
			c.Label,
			strings.Join(setup, ", "),
			describeStep(c.Test),
			strconv.Itoa(c.Expect),
		})
	}
	return rows
}

// describeStep renders a step as op(name) with its non-default flags.
func describeStep(st scenario.Step) string {
	var b strings.Builder
	b.WriteString(string(st.Op))
	if st.Op == scenario.OpStatistics {
		if st.Category != "" {
			b.WriteString("(" + st.Category + ")")
		}
		return b.String()
	}
	b.WriteString("(" + strconv.Quote(st.Name) + ")")
	if st.ReadOnly {
		b.WriteString(" read_only")
	}
	if st.AllowedHosts != nil {
		hosts := make([]string, len(st.AllowedHosts))
		for i, h := range st.AllowedHosts {
			hosts[i] = h.String()
		}
		b.WriteString(" hosts=[" + strings.Join(hosts, ",") + "]")
	}
	return b.String()
}

// StatisticsCheck is the printable result of a one-off statistics check.
type StatisticsCheck struct {
	Code       int                    `json:"code" yaml:"code"`
	Violations []statistics.Violation `json:"violations" yaml:"violations"`
}

// OK reports whether the payload matched the schema.
func (s StatisticsCheck) OK() bool {
	return len(s.Violations) == 0
}

// Headers implements TableRenderer.
func (s StatisticsCheck) Headers() []string {
	return []string{"FIELD", "REASON"}
}

// Rows implements TableRenderer. A conforming payload renders as a single
// "ok" row.
func (s StatisticsCheck) Rows() [][]string {
	if s.OK() {
		return [][]string{{"response", "ok"}}
	}
	rows := make([][]string, len(s.Violations))
	for i, v := range s.Violations {
		rows[i] = []string{v.Field, v.Reason}
	}
	return rows
}
