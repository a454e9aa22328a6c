package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithComponentAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := WithComponent(New(&buf, "debug", false), "messenger")
	ctx := WithRequestID(context.Background(), "req-1")

	ctxLog := FromContext(ctx, l)
	ctxLog.Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "messenger", line["component"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "hello", line["message"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", false)
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
}
