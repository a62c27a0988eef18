package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeXML(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"success", `<response><API_return><return_code>0</return_code></API_return></response>`, 0},
		{"duplicate", `<?xml version="1.0"?><r><API_return><return_code>33</return_code></API_return></r>`, 33},
		{"padded code", "<r><API_return><return_code>\n 606 \n</return_code></API_return></r>", 606},
		{"extra siblings", `<r><other/><API_return><msg>x</msg><return_code>34</return_code></API_return></r>`, 34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode([]byte(tt.body), ShapeXML)
			require.NoError(t, err)
			assert.Equal(t, tt.code, out.Code)
			assert.Nil(t, out.Payload)
		})
	}
}

func TestDecodeXML_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not xml", "Internal Server Error"},
		{"truncated", "<r><API_return><return_code>0</return_code>"},
		{"missing API_return", "<r><return_code>0</return_code></r>"},
		{"missing return_code", "<r><API_return><msg>ok</msg></API_return></r>"},
		{"nested too deep", "<r><x><API_return><return_code>0</return_code></API_return></x></r>"},
		{"non integer", "<r><API_return><return_code>zero</return_code></API_return></r>"},
		{"round trip unsafe", `<Root ::attr="x">]]><x::Element/></Root>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body), ShapeXML)
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "expected MalformedResponseError, got %T", err)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	out, err := Decode([]byte(`{"return_code": 0, "response": {"a": 1}}`), ShapeJSON)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.JSONEq(t, `{"a": 1}`, string(out.Payload))

	out, err = Decode([]byte(`{"return_code": 34}`), ShapeJSON)
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, out.Code)
	assert.Nil(t, out.Payload)

	out, err = Decode([]byte(`{"return_code": 0, "response": null}`), ShapeJSON)
	require.NoError(t, err)
	assert.Nil(t, out.Payload)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	for _, body := range []string{
		``,
		`null`,
		`[1, 2]`,
		`{"response": {}}`,
		`{"return_code": "0"}`,
		`{"return_code": 1.5}`,
		`<r><API_return><return_code>0</return_code></API_return></r>`,
	} {
		_, err := Decode([]byte(body), ShapeJSON)
		require.Error(t, err, "body %q", body)
		assert.True(t, IsMalformed(err), "body %q", body)
	}
}

func TestDecode_ShapeIsNotGuessed(t *testing.T) {
	// A valid JSON envelope is still a contract break for an XML endpoint.
	_, err := Decode([]byte(`{"return_code": 0}`), ShapeXML)
	assert.True(t, IsMalformed(err))
}

func TestDecode_UnknownShape(t *testing.T) {
	_, err := Decode([]byte(`{}`), Shape(42))
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
}

func TestMalformedResponseError_TruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	_, err := Decode(long, ShapeXML)

	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ShapeXML, me.Shape)
	assert.Len(t, me.Body, maxExcerpt+3)
}
