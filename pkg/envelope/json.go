package envelope

import (
	"bytes"
	"encoding/json"
)

type jsonDecoder struct{}

// Decode implements Decoder.
func (jsonDecoder) Decode(raw []byte) (Outcome, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return Outcome{}, malformed(ShapeJSON, raw, "not a JSON object: %v", err)
	}
	if env == nil {
		return Outcome{}, malformed(ShapeJSON, raw, "not a JSON object")
	}

	rc, ok := env["return_code"]
	if !ok {
		return Outcome{}, malformed(ShapeJSON, raw, "return_code is missing")
	}

	var code int
	if err := json.Unmarshal(rc, &code); err != nil {
		return Outcome{}, malformed(ShapeJSON, raw, "return_code %s is not an integer", string(rc))
	}

	out := Outcome{Code: code}
	if resp, ok := env["response"]; ok && !bytes.Equal(bytes.TrimSpace(resp), []byte("null")) {
		out.Payload = resp
	}
	return out, nil
}
