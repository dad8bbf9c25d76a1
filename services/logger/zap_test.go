package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/masomo-offline/core/session"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Warn("promoting assignment", errors.New("timeout"), session.Profile{ID: "STD-101"}, map[string]interface{}{"assignment": "a1"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, zapcore.WarnLevel, e.Level)
		assert.Equal(t, "promoting assignment", e.Message)
		fields := e.ContextMap()
		assert.Equal(t, "timeout", fields["error"])
		assert.Equal(t, "STD-101", fields["student"])
		assert.Equal(t, "a1", fields["assignment"])
	}
}
