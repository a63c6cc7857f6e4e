package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/bench-ai/workbench-go/internal/config"
)

func TestInitialize_Once(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &zaptest.Buffer{}
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "workbench"}, sink)

	first := GetLogger()
	require.NotNil(t, first)
	first.Info("hello")
	assert.Contains(t, sink.String(), `"hello"`)

	// A second Initialize must not replace the logger.
	Initialize(config.LoggerConfig{Level: "error", Format: "console", ServiceName: "other"}, &zaptest.Buffer{})
	assert.Same(t, first, GetLogger())
}

func TestInitialize_BadLevelFallsBack(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &zaptest.Buffer{}
	Initialize(config.LoggerConfig{Level: "nonsense", Format: "json", ServiceName: "workbench"}, sink)

	logger := GetLogger()
	logger.Debug("too quiet")
	logger.Info("loud enough")

	assert.NotContains(t, sink.String(), "too quiet")
	assert.Contains(t, sink.String(), "loud enough")
}

func TestGetLogger_FallbackBeforeInit(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotNil(t, GetLogger())
	assert.NotPanics(t, Sync)
}

func TestNewEncoder_Formats(t *testing.T) {
	t.Parallel()

	assert.IsType(t, zapcore.NewConsoleEncoder(zapcore.EncoderConfig{}), newEncoder("console"))
	assert.IsType(t, zapcore.NewJSONEncoder(zapcore.EncoderConfig{}), newEncoder("json"))
}
