package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and restores the
// previous settings when the test ends.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	prevOut, prevColor := output, useColor
	output, useColor = buf, false
	mu.Unlock()
	prevLevel := Level(currentLevel.Load())
	prevFormat, _ := currentFormat.Load().(string)
	reconfigure()

	t.Cleanup(func() {
		mu.Lock()
		output, useColor = prevOut, prevColor
		mu.Unlock()
		currentLevel.Store(int32(prevLevel))
		currentFormat.Store(prevFormat)
		reconfigure()
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
		drop  []string
	}{
		{"DEBUG", []string{"d-msg", "i-msg", "w-msg", "e-msg"}, nil},
		{"INFO", []string{"i-msg", "w-msg", "e-msg"}, []string{"d-msg"}},
		{"WARN", []string{"w-msg", "e-msg"}, []string{"d-msg", "i-msg"}},
		{"ERROR", []string{"e-msg"}, []string{"d-msg", "i-msg", "w-msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := captureOutput(t)
			SetLevel(tt.level)

			Debug("d-msg")
			Info("i-msg")
			Warn("w-msg")
			Error("e-msg")

			out := buf.String()
			for _, m := range tt.want {
				assert.Contains(t, out, m)
			}
			for _, m := range tt.drop {
				assert.NotContains(t, out, m)
			}
		})
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	captureOutput(t)
	SetLevel("WARN")
	SetLevel("chatty")
	assert.Equal(t, LevelWarn, Level(currentLevel.Load()))

	SetLevel("warning")
	assert.Equal(t, LevelWarn, Level(currentLevel.Load()))
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, LevelDebug, l)

	_, ok = ParseLevel("trace")
	assert.False(t, ok)

	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")
	SetLevel("INFO")

	Info("case finished", Case("create twice: same name"), ReturnCode(33), Passed(true), Folder("  cde_789"))

	line := buf.String()
	assert.Contains(t, line, "[INFO] case finished")
	assert.Contains(t, line, `case="create twice: same name"`)
	assert.Contains(t, line, "return_code=33")
	assert.Contains(t, line, "passed=true")
	assert.Contains(t, line, `folder="  cde_789"`)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormat_Groups(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")

	With("component", "runner").WithGroup("http").Info("request", "status", 200)
	assert.Contains(t, buf.String(), "component=runner")
	assert.Contains(t, buf.String(), "http.status=200")
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("json")
	SetLevel("INFO")

	Info("case finished", Expected(606), ReturnCode(606), Err(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "case finished", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.EqualValues(t, 606, rec[KeyExpected])
	assert.EqualValues(t, 606, rec[KeyReturnCode])
	assert.Equal(t, "boom", rec[KeyError])
}

func TestSetFormat_IgnoresUnknown(t *testing.T) {
	captureOutput(t)
	SetFormat("json")
	SetFormat("xml")
	assert.Equal(t, "json", currentFormat.Load())
}

func TestErrNil(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")

	Info("no error", Err(nil))
	assert.NotContains(t, buf.String(), "error=")
}

func TestContextLogging(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("json")
	SetLevel("DEBUG")

	lc := NewLogContext("run-1").WithCase("delete: target exists").WithOperation("delete", "abc")
	ctx := WithContext(context.Background(), lc)

	DebugCtx(ctx, "request sent", HTTPStatus(200))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "run-1", rec[KeyRunID])
	assert.Equal(t, "delete: target exists", rec[KeyCase])
	assert.Equal(t, "delete", rec[KeyOperation])
	assert.Equal(t, "abc", rec[KeyFolder])
	assert.EqualValues(t, 200, rec[KeyHTTPStatus])
}

func TestContextLogging_WithoutLogContext(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")

	InfoCtx(context.Background(), "plain")
	WarnCtx(context.Background(), "plain warn")
	ErrorCtx(context.Background(), "plain error")

	out := buf.String()
	assert.Contains(t, out, "plain")
	assert.NotContains(t, out, KeyRunID)
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("run-7")
	withCase := lc.WithCase("edit read_only: true to false")
	withOp := withCase.WithOperation("edit", "x1")

	assert.Empty(t, lc.Case, "WithCase must not mutate the receiver")
	assert.Empty(t, withCase.Operation)
	assert.Equal(t, "run-7", withOp.RunID)
	assert.Equal(t, "edit read_only: true to false", withOp.Case)
	assert.Equal(t, "x1", withOp.Folder)
	assert.Equal(t, "abc", withOp.WithTrace("abc").TraceID)
	assert.GreaterOrEqual(t, withOp.DurationMs(), 0.0)

	var nilLC *LogContext
	assert.Nil(t, nilLC.Clone())
	assert.Nil(t, nilLC.WithCase("x"))
	assert.Zero(t, nilLC.DurationMs())
	assert.Nil(t, FromContext(context.Background()))
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t)
	SetFormat("text")
	SetLevel("INFO")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("tick", "worker", i, "n", j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 400)
}

func TestInit_File(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "sharecheck.log")

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("to file")
	t.Cleanup(func() {
		mu.Lock()
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
		mu.Unlock()
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestInit_BadPath(t *testing.T) {
	captureOutput(t)
	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestColorTextHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, true)
	l := slog.New(h)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	l.Warn("careful", "k", "v")
	assert.Contains(t, buf.String(), colorYellow+"WARN"+colorReset)
	assert.Contains(t, buf.String(), colorCyan+"k"+colorReset+"=v")
}

func TestIsTerminal_NullDevice(t *testing.T) {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer func() { _ = devNull.Close() }()

	assert.False(t, isTerminal(devNull))
}
