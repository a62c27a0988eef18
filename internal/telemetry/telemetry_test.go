package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestSpansAreNoOpWithoutInit(t *testing.T) {
	ctx, span := StartCaseSpan(context.Background(), "create/chars", 0)
	require.NotNil(t, span)

	reqCtx, reqSpan := StartRequestSpan(ctx, "create_shared_folder", "GET", Folder("abc"))
	RecordError(reqCtx, errors.New("boom"))
	RecordError(reqCtx, nil)
	SetAttributes(reqCtx, ReturnCode(0), HTTPStatus(200))
	reqSpan.End()
	span.End()

	// No-op spans carry no IDs.
	assert.Empty(t, TraceID(ctx))
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, AttrCase, string(Case("x").Key))
	assert.Equal(t, int64(606), ReturnCode(606).Value.AsInt64())
	assert.True(t, Passed(true).Value.AsBool())
	assert.Equal(t, "abc", Folder("abc").Value.AsString())
}
