package statistics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/marmos91/sharecheck/internal/appliancetest"
	"github.com/marmos91/sharecheck/pkg/envelope"
)

func decode(t *testing.T, body string) envelope.Outcome {
	t.Helper()
	o, err := envelope.Decode([]byte(body), envelope.ShapeJSON)
	require.NoError(t, err)
	return o
}

func fields(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

// metricFields lists the default metrics under prefix.
func metricFields(prefix string) []string {
	out := make([]string, 0, len(DefaultMetrics))
	for _, m := range DefaultMetrics {
		out = append(out, prefix+"."+m)
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestVerify_Conforming(t *testing.T) {
	o := decode(t, appliancetest.DefaultStatisticsBody)
	assert.Empty(t, Verify(o))
	assert.NoError(t, Err(Verify(o)))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "missing one metric",
			body: appliancetest.StatisticsBodyWithout("nfs_read_ops"),
			want: []string{"response.protocol_accumulate.Default.nfs_read_ops"},
		},
		{
			name: "missing several metrics",
			body: appliancetest.StatisticsBodyWithout("nfs_write_ops", "nfs_write_bytes"),
			want: []string{
				"response.protocol_accumulate.Default.nfs_write_ops",
				"response.protocol_accumulate.Default.nfs_write_bytes",
			},
		},
		{
			name: "missing gateway group",
			body: `{"return_code": 0, "response": {"protocol_accumulate": {"Other": {}}}}`,
			want: concat(
				[]string{"response.protocol_accumulate.Default"},
				metricFields("response.protocol_accumulate.Default"),
			),
		},
		{
			name: "missing category",
			body: `{"return_code": 0, "response": {}}`,
			want: concat(
				[]string{"response.protocol_accumulate", "response.protocol_accumulate.Default"},
				metricFields("response.protocol_accumulate.Default"),
			),
		},
		{
			name: "missing response",
			body: `{"return_code": 0}`,
			want: concat(
				[]string{"response", "response.protocol_accumulate", "response.protocol_accumulate.Default"},
				metricFields("response.protocol_accumulate.Default"),
			),
		},
		{
			name: "container is not an object",
			body: `{"return_code": 0, "response": {"protocol_accumulate": {"Default": 7}}}`,
			want: concat(
				[]string{"response.protocol_accumulate.Default"},
				metricFields("response.protocol_accumulate.Default"),
			),
		},
		{
			name: "failure code and missing response",
			body: `{"return_code": 5}`,
			want: concat(
				[]string{"return_code", "response", "response.protocol_accumulate", "response.protocol_accumulate.Default"},
				metricFields("response.protocol_accumulate.Default"),
			),
		},
		{
			name: "failure code with full payload",
			body: `{"return_code": 5, "response": {"protocol_accumulate": {"Default": {"nfs_write_ops": 1, "nfs_write_time": 1, "nfs_read_time": 1, "nfs_read_ops": 1, "nfs_read_bytes": 1, "nfs_write_bytes": 1}}}}`,
			want: []string{"return_code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Verify(decode(t, tt.body))
			assert.Equal(t, tt.want, fields(got))
		})
	}
}

func TestVerify_EmptyResponseReportsEveryField(t *testing.T) {
	got := Verify(envelope.Outcome{Code: 0, Payload: json.RawMessage(`{}`)})
	require.Len(t, got, 2+len(DefaultMetrics))
	assert.Equal(t, Violation{Field: "response.protocol_accumulate", Reason: "missing"}, got[0])
	assert.Equal(t, "response.protocol_accumulate.Default", got[1].Field)
}

func TestVerify_ContainerReason(t *testing.T) {
	got := Verify(decode(t, `{"return_code": 0, "response": {"protocol_accumulate": {"Default": 7}}}`))
	require.NotEmpty(t, got)
	assert.Equal(t, "not an object", got[0].Reason)
	assert.Equal(t, "missing", got[1].Reason)
}

func TestVerify_NullMetricCountsAsPresent(t *testing.T) {
	body := `{"return_code": 0, "response": {"protocol_accumulate": {"Default": {"nfs_write_ops": null, "nfs_write_time": 0, "nfs_read_time": 0, "nfs_read_ops": 0, "nfs_read_bytes": 0, "nfs_write_bytes": 0}}}}`
	assert.Empty(t, Verify(decode(t, body)))
}

func TestSchema_KeysAreLiteral(t *testing.T) {
	s := Schema{Path: []string{"response", "gw.group"}, Metrics: []string{"a*b"}}

	ok := envelope.Outcome{Payload: json.RawMessage(`{"gw.group": {"a*b": 1}}`)}
	assert.Empty(t, s.Verify(ok))

	// A dotted key must not be read as a nested path.
	nested := envelope.Outcome{Payload: json.RawMessage(`{"gw": {"group": {"a*b": 1}}}`)}
	assert.Equal(t, []string{"response.gw.group", "response.gw.group.a*b"}, fields(s.Verify(nested)))

	// A wildcard metric must not match another key.
	wild := envelope.Outcome{Payload: json.RawMessage(`{"gw.group": {"axb": 1}}`)}
	assert.Equal(t, []string{"response.gw.group.a*b"}, fields(s.Verify(wild)))
}

func TestSchema_PathWithoutResponsePrefix(t *testing.T) {
	s := Schema{Path: []string{"Default"}, Metrics: []string{"x"}}
	o := envelope.Outcome{Payload: json.RawMessage(`{"Default": {}}`)}
	assert.Equal(t, []string{"Default.x"}, fields(s.Verify(o)))
}

func TestErr(t *testing.T) {
	vs := []Violation{
		{Field: "return_code", Reason: "expected 0, got 5"},
		{Field: "response", Reason: "missing"},
	}
	err := Err(vs)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "return_code: expected 0, got 5")
	assert.Contains(t, err.Error(), "response: missing")

	assert.NoError(t, Err(nil))
}

func TestDefaultSchema_IsACopy(t *testing.T) {
	s := DefaultSchema()
	s.Metrics[0] = "changed"
	assert.Equal(t, "nfs_write_ops", DefaultSchema().Metrics[0])
}

func TestSchemaFor(t *testing.T) {
	assert.Equal(t, DefaultSchema(), SchemaFor(DefaultCategory))

	s := SchemaFor("protocol_instant")
	assert.Equal(t, []string{"response", "protocol_instant", "Default"}, s.Path)

	ok := decode(t, `{"return_code": 0, "response": {"protocol_instant": {"Default": {"nfs_write_ops": 1, "nfs_write_time": 1, "nfs_read_time": 1, "nfs_read_ops": 1, "nfs_read_bytes": 1, "nfs_write_bytes": 1}}}}`)
	assert.Empty(t, s.Verify(ok))
	assert.NotEmpty(t, DefaultSchema().Verify(ok))
}
