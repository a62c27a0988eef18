package scenario

import (
	"fmt"
	"strconv"

	"github.com/marmos91/sharecheck/pkg/apiclient"
	"github.com/marmos91/sharecheck/pkg/envelope"
	"github.com/marmos91/sharecheck/pkg/statistics"
)

// freshLength is the length of generated names where the length itself is
// not under test.
const freshLength = 10

// DefaultMatrix returns the built-in conformance matrix.
func DefaultMatrix() []Case {
	var cases []Case
	cases = append(cases, createCases()...)
	cases = append(cases, nameLengthCases()...)
	cases = append(cases, createTwiceCases()...)
	cases = append(cases, deleteCases()...)
	cases = append(cases, editReadOnlyCases()...)
	cases = append(cases, allowedHostsCases()...)
	cases = append(cases, statisticsCase())
	return cases
}

func createCases() []Case {
	valid := []struct{ label, name string }{
		{"chars", "abc"},
		{"digits", "123"},
		{"digits and chars", "abc_1234"},
		{"with spaces", "  cde_789"},
	}
	invalid := []struct{ label, name string }{
		{"less sign", "<"},
		{"greater sign", ">"},
		{"colon", ":"},
		{"double quotation", `"`},
		{"slash", "/"},
		{"backslash", `\`},
		{"vertical bar", "|"},
		{"question mark", "?"},
		{"asterisk", "*"},
	}

	var cases []Case
	for _, v := range valid {
		cases = append(cases, Case{
			Label:  "create: " + v.label,
			Test:   Step{Op: OpCreate, Name: v.name, NFS: true},
			Expect: envelope.CodeSuccess,
		})
	}
	for _, v := range invalid {
		cases = append(cases, Case{
			Label:  "create: " + v.label,
			Test:   Step{Op: OpCreate, Name: v.name, NFS: true},
			Expect: envelope.CodeInvalidName,
		})
	}
	return cases
}

func nameLengthCases() []Case {
	lengths := []struct{ n, expect int }{
		{254, envelope.CodeSuccess},
		{255, envelope.CodeInvalidName},
	}
	cases := make([]Case, 0, len(lengths))
	for _, l := range lengths {
		cases = append(cases, Case{
			Label:  "create name length: " + strconv.Itoa(l.n),
			Fresh:  map[string]int{"name": l.n},
			Test:   Step{Op: OpCreate, Name: "$name", NFS: true},
			Expect: l.expect,
		})
	}
	return cases
}

func createTwiceCases() []Case {
	return []Case{
		{
			Label:  "create twice: same name",
			Fresh:  map[string]int{"a": freshLength},
			Setup:  []Step{{Op: OpCreate, Name: "$a", NFS: true}},
			Test:   Step{Op: OpCreate, Name: "$a", NFS: true},
			Expect: envelope.CodeDuplicateName,
		},
		{
			Label:  "create twice: different name",
			Fresh:  map[string]int{"a": freshLength, "b": freshLength},
			Setup:  []Step{{Op: OpCreate, Name: "$a", NFS: true}},
			Test:   Step{Op: OpCreate, Name: "$b", NFS: true},
			Expect: envelope.CodeSuccess,
		},
	}
}

func deleteCases() []Case {
	return []Case{
		{
			Label:  "delete: target exists",
			Fresh:  map[string]int{"a": freshLength},
			Setup:  []Step{{Op: OpCreate, Name: "$a", NFS: true}},
			Test:   Step{Op: OpDelete, Name: "$a"},
			Expect: envelope.CodeSuccess,
		},
		{
			Label:  "delete: target non exists",
			Fresh:  map[string]int{"a": freshLength},
			Test:   Step{Op: OpDelete, Name: "$a"},
			Expect: envelope.CodeNotFound,
		},
		{
			Label:  "delete: repeated on absent",
			Fresh:  map[string]int{"a": freshLength},
			Setup:  []Step{{Op: OpDelete, Name: "$a"}},
			Test:   Step{Op: OpDelete, Name: "$a"},
			Expect: envelope.CodeNotFound,
		},
	}
}

func editReadOnlyCases() []Case {
	transitions := []struct{ from, to bool }{
		{true, true},
		{true, false},
		{false, false},
		{false, true},
	}
	cases := make([]Case, 0, len(transitions)+1)
	for _, tr := range transitions {
		cases = append(cases, Case{
			Label:  fmt.Sprintf("edit read_only: %t to %t", tr.from, tr.to),
			Fresh:  map[string]int{"a": freshLength},
			Setup:  []Step{{Op: OpCreate, Name: "$a", NFS: true, ReadOnly: tr.from}},
			Test:   Step{Op: OpEdit, Name: "$a", NFS: true, ReadOnly: tr.to},
			Expect: envelope.CodeSuccess,
		})
	}
	return append(cases, Case{
		Label:  "edit read_only: non exists",
		Fresh:  map[string]int{"a": freshLength},
		Test:   Step{Op: OpEdit, Name: "$a", NFS: true, ReadOnly: true},
		Expect: envelope.CodeNotFound,
	})
}

func allowedHostsCases() []Case {
	rules := []struct{ label, rule string }{
		{"ip", "192.168.122.66:false::"},
		{"cidr", "192.168.122.0/24:false::"},
		{"hostname", "test-host:false::"},
		// The appliance accepts out-of-range octets; asserted as observed.
		{"wrong ip", "256.256.256.256:false::"},
	}
	cases := make([]Case, 0, len(rules))
	for _, r := range rules {
		cases = append(cases, Case{
			Label: "allowed hosts: " + r.label,
			Fresh: map[string]int{"a": freshLength},
			Setup: []Step{{Op: OpCreate, Name: "$a", NFS: true}},
			Test: Step{
				Op:           OpEdit,
				Name:         "$a",
				NFS:          true,
				AllowedHosts: []apiclient.HostRule{apiclient.MustParseHostRule(r.rule)},
			},
			Expect: envelope.CodeSuccess,
		})
	}
	return cases
}

func statisticsCase() Case {
	schema := statistics.DefaultSchema()
	return Case{
		Label:  "statistics: realtime statistic format",
		Test:   Step{Op: OpStatistics, Category: apiclient.CategoryProtocolAccumulate},
		Expect: envelope.CodeSuccess,
		Schema: &schema,
	}
}
