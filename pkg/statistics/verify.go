// Package statistics checks the structure of the realtime statistics
// response: a container path that must exist and the metrics it must hold.
// Values are not checked, only presence.
package statistics

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"

	"github.com/marmos91/sharecheck/pkg/envelope"
)

// Schema describes the required structure of a statistics payload. Path is
// relative to the envelope root, so it normally starts with "response".
type Schema struct {
	Path    []string `yaml:"path" json:"path"`
	Metrics []string `yaml:"metrics" json:"metrics"`
}

// DefaultMetrics are the per-gateway-group counters every appliance reports.
var DefaultMetrics = []string{
	"nfs_write_ops",
	"nfs_write_time",
	"nfs_read_time",
	"nfs_read_ops",
	"nfs_read_bytes",
	"nfs_write_bytes",
}

// DefaultCategory is the statistics category DefaultSchema describes.
const DefaultCategory = "protocol_accumulate"

// DefaultGroup is the gateway group every appliance has.
const DefaultGroup = "Default"

// DefaultSchema returns the schema for the protocol_accumulate category of
// the Default gateway group.
func DefaultSchema() Schema {
	return SchemaFor(DefaultCategory)
}

// SchemaFor returns the schema of the Default gateway group under category,
// requiring the default metrics.
func SchemaFor(category string) Schema {
	return Schema{
		Path:    []string{"response", category, DefaultGroup},
		Metrics: append([]string(nil), DefaultMetrics...),
	}
}

// Violation is one structural defect.
type Violation struct {
	// Field is the dotted path of the missing or wrong element.
	Field  string `yaml:"field" json:"field"`
	Reason string `yaml:"reason" json:"reason"`
}

func (v Violation) Error() string {
	return v.Field + ": " + v.Reason
}

// Verify checks o against the default schema.
func Verify(o envelope.Outcome) []Violation {
	return DefaultSchema().Verify(o)
}

// Verify checks o against s. All violations are collected: a non-zero
// return code does not stop the structural checks, and once a container is
// missing every path element and metric below it is reported as well.
func (s Schema) Verify(o envelope.Outcome) []Violation {
	var out []Violation
	if o.Code != envelope.CodeSuccess {
		out = append(out, Violation{
			Field:  "return_code",
			Reason: fmt.Sprintf("expected %d, got %d", envelope.CodeSuccess, o.Code),
		})
	}

	// The decoder keeps only the "response" object as the payload; the
	// schema path still names it.
	node := gjson.ParseBytes(o.Payload)
	present := true
	var walked []string
	for i, key := range s.Path {
		walked = append(walked, key)
		if present && !(i == 0 && key == "response") {
			node = node.Get(escape(key))
		}
		if present && !isObject(node) {
			present = false
			out = append(out, Violation{Field: strings.Join(walked, "."), Reason: containerReason(node)})
			continue
		}
		if !present {
			out = append(out, Violation{Field: strings.Join(walked, "."), Reason: "missing"})
		}
	}

	prefix := strings.Join(walked, ".")
	for _, m := range s.Metrics {
		if !present || !node.Get(escape(m)).Exists() {
			out = append(out, Violation{Field: join(prefix, m), Reason: "missing"})
		}
	}
	return out
}

func containerReason(r gjson.Result) string {
	if r.Exists() {
		return "not an object"
	}
	return "missing"
}

// Err joins violations into one error, or nil when there are none.
func Err(violations []Violation) error {
	var err error
	for _, v := range violations {
		err = multierr.Append(err, v)
	}
	return err
}

func isObject(r gjson.Result) bool {
	return r.Exists() && r.IsObject()
}

// escape quotes gjson path metacharacters so keys are matched literally.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
