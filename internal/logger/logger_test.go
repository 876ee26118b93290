package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	Init(true)
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))

	Init(false)
	assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
}
