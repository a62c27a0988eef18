package logger

import "log/slog"

// Standard field keys. Use them consistently so runs can be grepped and
// aggregated.
const (
	KeyRunID   = "run_id"
	KeyTraceID = "trace_id"

	KeyCase      = "case"
	KeyOperation = "operation"
	KeyFolder    = "folder"
	KeyAPI       = "api_address"
	KeyUser      = "user_id"

	KeyReturnCode = "return_code"
	KeyExpected   = "expected"
	KeyPassed     = "passed"
	KeyHTTPStatus = "http_status"
	KeyShape      = "shape"
	KeyViolations = "violations"

	KeyWorkers  = "workers"
	KeyCases    = "cases"
	KeyAttempt  = "attempt"
	KeyRetryIn  = "retry_in"
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }

func Case(label string) slog.Attr { return slog.String(KeyCase, label) }

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Folder(name string) slog.Attr { return slog.String(KeyFolder, name) }

func ReturnCode(code int) slog.Attr { return slog.Int(KeyReturnCode, code) }

func Expected(code int) slog.Attr { return slog.Int(KeyExpected, code) }

func Passed(ok bool) slog.Attr { return slog.Bool(KeyPassed, ok) }

func HTTPStatus(code int) slog.Attr { return slog.Int(KeyHTTPStatus, code) }

func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }

// Err returns the error attribute; nil errors produce an empty attribute
// that handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
