package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrRunID      = "sharecheck.run_id"
	AttrCase       = "sharecheck.case"
	AttrExpected   = "sharecheck.expected_code"
	AttrPassed     = "sharecheck.passed"
	AttrOperation  = "appliance.operation"
	AttrFolder     = "appliance.folder"
	AttrReturnCode = "appliance.return_code"
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
)

// Span names.
const (
	SpanRun     = "sharecheck.run"
	SpanCase    = "sharecheck.case"
	SpanLogin   = "appliance.login"
	SpanRequest = "appliance.request"
)

// RunID returns the run ID attribute.
func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

// Case returns the case label attribute.
func Case(label string) attribute.KeyValue {
	return attribute.String(AttrCase, label)
}

// Expected returns the expected return code attribute.
func Expected(code int) attribute.KeyValue {
	return attribute.Int(AttrExpected, code)
}

// Passed returns the case verdict attribute.
func Passed(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrPassed, ok)
}

// Operation returns the appliance operation attribute.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Folder returns the shared folder name attribute.
func Folder(name string) attribute.KeyValue {
	return attribute.String(AttrFolder, name)
}

// ReturnCode returns the appliance return code attribute.
func ReturnCode(code int) attribute.KeyValue {
	return attribute.Int(AttrReturnCode, code)
}

// HTTPStatus returns the HTTP status attribute.
func HTTPStatus(status int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, status)
}

// StartRequestSpan starts a client span for one appliance HTTP request.
func StartRequestSpan(ctx context.Context, operation, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		Operation(operation),
		attribute.String(AttrHTTPMethod, method),
	}, attrs...)
	return StartSpan(ctx, SpanRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}

// StartCaseSpan starts the span wrapping one scenario case.
func StartCaseSpan(ctx context.Context, label string, expected int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCase, trace.WithAttributes(Case(label), Expected(expected)))
}
