package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestGetLoggerLevel(t *testing.T) {
	l := &zapLogger{cfg: &ZapConfig{Level: "warn"}}
	assert.Equal(t, zapcore.WarnLevel, l.getLoggerLevel())

	l = &zapLogger{cfg: &ZapConfig{Level: "nonsense"}}
	assert.Equal(t, zapcore.DebugLevel, l.getLoggerLevel())
}

func TestWithFields(t *testing.T) {
	l := InitializeZapLogger(ZapConfig{Level: "info", Mode: "production", Encoding: "json", Service: "concert"})
	ctx := WithFields(context.Background(), l, "token", "abc")

	zl := l.(*zapLogger)
	assert.NotSame(t, zl.sugarLogger, zl.ctx(ctx))
	assert.Same(t, zl.sugarLogger, zl.ctx(context.Background()))
}

func TestNilContextPanics(t *testing.T) {
	l := NewNopLogger()
	assert.Panics(t, func() {
		//nolint:staticcheck
		l.Info(nil, "boom")
	})
}
