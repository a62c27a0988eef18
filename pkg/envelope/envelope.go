// Package envelope decodes the fixed response wrappers returned by the
// appliance into a uniform Outcome.
//
// Two shapes exist on the wire:
//
//	XML:  <root><API_return><return_code>0</return_code></API_return></root>
//	JSON: {"return_code": 0, "response": {...}}
//
// The caller always declares which shape an endpoint answers with; the
// decoder never sniffs the body.
package envelope

import (
	"encoding/json"
	"fmt"
)

// Documented return codes.
const (
	CodeSuccess       = 0
	CodeDuplicateName = 33
	CodeNotFound      = 34
	CodeInvalidName   = 606
)

// Shape selects the envelope format of an endpoint.
type Shape int

const (
	ShapeXML Shape = iota
	ShapeJSON
)

// String returns the shape name used in logs and reports.
func (s Shape) String() string {
	switch s {
	case ShapeXML:
		return "xml"
	case ShapeJSON:
		return "json"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Outcome is a decoded response.
type Outcome struct {
	// Code is the appliance return code (0 = success).
	Code int `json:"code" yaml:"code"`

	// Payload holds the JSON "response" object, if any. Always nil for XML.
	Payload json.RawMessage `json:"payload,omitempty" yaml:"-"`
}

// OK reports whether the appliance signalled success.
func (o Outcome) OK() bool {
	return o.Code == CodeSuccess
}

// Decoder converts a raw body into an Outcome.
type Decoder interface {
	Decode(raw []byte) (Outcome, error)
}

// For returns the decoder for the given shape.
func For(shape Shape) (Decoder, error) {
	switch shape {
	case ShapeXML:
		return xmlDecoder{}, nil
	case ShapeJSON:
		return jsonDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown envelope shape %d", int(shape))
	}
}

// Decode decodes raw with the decoder for shape.
func Decode(raw []byte, shape Shape) (Outcome, error) {
	d, err := For(shape)
	if err != nil {
		return Outcome{}, err
	}
	return d.Decode(raw)
}
