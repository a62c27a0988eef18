package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds the run-scoped logging fields.
type LogContext struct {
	RunID     string // identifies one matrix run
	TraceID   string // OpenTelemetry trace ID
	Case      string // scenario case label
	Operation string // login, create, delete, edit, statistics
	Folder    string // shared folder name the operation targets
	StartTime time.Time
}

// WithContext returns a context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext of ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for the given run.
func NewLogContext(runID string) *LogContext {
	return &LogContext{RunID: runID, StartTime: time.Now()}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithCase returns a copy with the case label set and the clock restarted.
func (lc *LogContext) WithCase(label string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Case = label
		c.StartTime = time.Now()
	}
	return c
}

// WithOperation returns a copy with the operation and target folder set.
func (lc *LogContext) WithOperation(op, folder string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Operation = op
		c.Folder = folder
	}
	return c
}

// WithTrace returns a copy with the trace ID set.
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
	}
	return c
}

// DurationMs returns the milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
