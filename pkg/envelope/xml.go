package envelope

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	xmlrv "github.com/mattermost/xml-roundtrip-validator"
)

// xmlEnvelope matches any root element carrying API_return/return_code.
type xmlEnvelope struct {
	XMLName xml.Name
	Return  *struct {
		Code *string `xml:"return_code"`
	} `xml:"API_return"`
}

type xmlDecoder struct{}

// Decode implements Decoder.
func (xmlDecoder) Decode(raw []byte) (Outcome, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Outcome{}, malformed(ShapeXML, raw, "empty body")
	}

	// Reject markup that encoding/xml would not round-trip faithfully
	// before trusting its parse.
	if err := xmlrv.Validate(bytes.NewReader(raw)); err != nil {
		return Outcome{}, malformed(ShapeXML, raw, "not well-formed: %v", err)
	}

	var env xmlEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return Outcome{}, malformed(ShapeXML, raw, "not well-formed: %v", err)
	}

	if env.Return == nil || env.Return.Code == nil {
		return Outcome{}, malformed(ShapeXML, raw, "API_return/return_code is missing")
	}

	text := strings.TrimSpace(*env.Return.Code)
	code, err := strconv.Atoi(text)
	if err != nil {
		return Outcome{}, malformed(ShapeXML, raw, "return_code %q is not an integer", text)
	}

	return Outcome{Code: code}, nil
}
