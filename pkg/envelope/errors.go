package envelope

import (
	"errors"
	"fmt"
)

// maxExcerpt bounds the body excerpt kept in MalformedResponseError.
const maxExcerpt = 256

// MalformedResponseError reports a body that does not match the declared
// envelope. It signals a contract break, not a wrong return code.
type MalformedResponseError struct {
	Shape  Shape
	Reason string
	Body   string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %s, content=%q", e.Shape, e.Reason, e.Body)
}

func malformed(shape Shape, raw []byte, format string, args ...any) *MalformedResponseError {
	body := string(raw)
	if len(body) > maxExcerpt {
		body = body[:maxExcerpt] + "..."
	}
	return &MalformedResponseError{
		Shape:  shape,
		Reason: fmt.Sprintf(format, args...),
		Body:   body,
	}
}

// IsMalformed reports whether err is (or wraps) a MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
