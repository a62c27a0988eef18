package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Matrix is the YAML document accepted by LoadMatrix.
//
//	cases:
//	  - label: "create: chars"
//	    test: {op: create, name: abc, nfs: true}
//	    expect: 0
//	  - label: "allowed hosts: ip"
//	    fresh: {a: 10}
//	    setup:
//	      - {op: create, name: $a, nfs: true}
//	    test:
//	      op: edit
//	      name: $a
//	      nfs: true
//	      allowed_hosts: ["192.168.122.66:false::"]
//	    expect: 0
type Matrix struct {
	Cases []Case `yaml:"cases"`
}

// LoadMatrix reads and validates a YAML matrix file.
func LoadMatrix(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix: %w", err)
	}
	defer func() { _ = f.Close() }()

	cases, err := ParseMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// ParseMatrix decodes and validates a YAML matrix. Unknown fields are
// rejected so that typos do not silently change a case.
func ParseMatrix(r io.Reader) ([]Case, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Matrix
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("matrix is empty")
		}
		return nil, fmt.Errorf("failed to parse matrix: %w", err)
	}
	if len(m.Cases) == 0 {
		return nil, fmt.Errorf("matrix has no cases")
	}
	if err := ValidateMatrix(m.Cases); err != nil {
		return nil, err
	}
	return m.Cases, nil
}

// Filter returns the cases whose label matches pattern. An empty pattern
// selects every case.
func Filter(cases []Case, pattern string) ([]Case, error) {
	if pattern == "" {
		return cases, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	var out []Case
	for _, c := range cases {
		if re.MatchString(c.Label) {
			out = append(out, c)
		}
	}
	return out, nil
}
