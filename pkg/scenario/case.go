// Package scenario runs declarative conformance cases against the appliance.
//
// A Case is a list of setup steps, one step under test and the expected
// return code. Every folder a case creates is deleted when the case ends,
// whatever the outcome.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
	"github.com/marmos91/sharecheck/pkg/statistics"
)

// Op is an appliance operation a step performs.
type Op string

const (
	OpCreate     Op = "create"
	OpDelete     Op = "delete"
	OpEdit       Op = "edit"
	OpStatistics Op = "statistics"
)

// Valid reports whether o is a known operation.
func (o Op) Valid() bool {
	switch o {
	case OpCreate, OpDelete, OpEdit, OpStatistics:
		return true
	}
	return false
}

// Shape returns the envelope shape the operation's endpoint answers with.
func (o Op) Shape() envelope.Shape {
	if o == OpStatistics {
		return envelope.ShapeJSON
	}
	return envelope.ShapeXML
}

// RefPrefix marks a step name as a reference to one of the case's fresh
// names rather than a literal.
const RefPrefix = "$"

// Step is one request.
type Step struct {
	Op Op `yaml:"op" json:"op"`

	// Name is a literal folder name or a "$ref" to a fresh name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	NFS      bool           `yaml:"nfs,omitempty" json:"nfs,omitempty"`
	SMB      bool           `yaml:"smb,omitempty" json:"smb,omitempty"`
	ReadOnly bool           `yaml:"read_only,omitempty" json:"read_only,omitempty"`
	Mode     apiclient.Mode `yaml:"mode,omitempty" json:"mode,omitempty"`

	// AllowedHosts is sent only when non-nil.
	AllowedHosts []apiclient.HostRule `yaml:"allowed_hosts,omitempty" json:"allowed_hosts,omitempty"`

	// Category is the statistics category; defaults to protocol_accumulate.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

func (s Step) ref() (string, bool) {
	if !strings.HasPrefix(s.Name, RefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s.Name, RefPrefix), true
}

func (s Step) folder(name string) apiclient.SharedFolder {
	return apiclient.SharedFolder{
		Name:         name,
		NFS:          s.NFS,
		SMB:          s.SMB,
		ReadOnly:     s.ReadOnly,
		Mode:         s.Mode,
		AllowedHosts: s.AllowedHosts,
	}
}

func (s Step) category() string {
	if s.Category == "" {
		return apiclient.CategoryProtocolAccumulate
	}
	return s.Category
}

// Case is one conformance check. Cases are immutable once declared.
type Case struct {
	Label string `yaml:"label" json:"label"`

	// Fresh maps reference names to the length of a random folder name
	// generated for each execution.
	Fresh map[string]int `yaml:"fresh,omitempty" json:"fresh,omitempty"`

	Setup  []Step `yaml:"setup,omitempty" json:"setup,omitempty"`
	Test   Step   `yaml:"test" json:"test"`
	Expect int    `yaml:"expect" json:"expect"`

	// Schema, when set, is checked against the test step's payload.
	Schema *statistics.Schema `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Validate checks that c is executable.
func (c Case) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return errors.New("case has no label")
	}
	for ref, n := range c.Fresh {
		if n <= 0 {
			return fmt.Errorf("case %q: fresh name %q has length %d", c.Label, ref, n)
		}
	}
	steps := append(append([]Step(nil), c.Setup...), c.Test)
	for i, st := range steps {
		where := "test"
		if i < len(c.Setup) {
			where = fmt.Sprintf("setup[%d]", i)
		}
		if !st.Op.Valid() {
			return fmt.Errorf("case %q: %s: unknown operation %q", c.Label, where, st.Op)
		}
		if st.Op == OpStatistics {
			continue
		}
		if st.Name == "" {
			return fmt.Errorf("case %q: %s: %s needs a folder name", c.Label, where, st.Op)
		}
		if ref, ok := st.ref(); ok {
			if _, declared := c.Fresh[ref]; !declared {
				return fmt.Errorf("case %q: %s: undeclared reference %q", c.Label, where, st.Name)
			}
		}
	}
	return nil
}

// literals returns the trimmed literal folder names used by c.
func (c Case) literals() []string {
	var out []string
	for _, st := range append(append([]Step(nil), c.Setup...), c.Test) {
		if st.Op == OpStatistics || st.Name == "" {
			continue
		}
		if _, isRef := st.ref(); isRef {
			continue
		}
		out = append(out, strings.TrimSpace(st.Name))
	}
	return out
}

// freshRefs returns the fresh references of c in a stable order.
func (c Case) freshRefs() []string {
	refs := make([]string, 0, len(c.Fresh))
	for ref := range c.Fresh {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// ValidateMatrix validates every case and rejects duplicate labels.
func ValidateMatrix(cases []Case) error {
	seen := make(map[string]bool, len(cases))
	for _, c := range cases {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Label] {
			return fmt.Errorf("duplicate case label %q", c.Label)
		}
		seen[c.Label] = true
	}
	return nil
}

// Status of a Result.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusErrored = "errored"
	StatusSkipped = "skipped"
)

// Result is the outcome of one case.
type Result struct {
	Case    Case
	Outcome envelope.Outcome
	Passed  bool

	// Err is set when the case could not be evaluated (transport failure,
	// malformed response, login failure).
	Err error

	Violations []statistics.Violation

	// Names holds the fresh names generated for this execution.
	Names map[string]string

	// TeardownErr reports folders that could not be deleted. It does not
	// affect Passed.
	TeardownErr error

	// Skipped is set for cases never started because the run was aborted.
	Skipped bool

	Duration time.Duration
}

// Status returns one of the Status constants.
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Err != nil:
		return StatusErrored
	case r.Passed:
		return StatusPassed
	default:
		return StatusFailed
	}
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errored" yaml:"errored"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// OK reports whether every case passed.
func (s Summary) OK() bool {
	return s.Passed == s.Total
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status() {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}
