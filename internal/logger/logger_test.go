package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &ZapLogger{zap.New(core)}, logs
}

func TestLevels(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		log   func(l Logger)
		level zapcore.Level
	}{
		{"Debug", func(l Logger) { l.Debug("msg") }, zapcore.DebugLevel},
		{"Info", func(l Logger) { l.Info("msg") }, zapcore.InfoLevel},
		{"Warn", func(l Logger) { l.Warn("msg") }, zapcore.WarnLevel},
		{"Error", func(l Logger) { l.Error("msg") }, zapcore.ErrorLevel},
		{"DebugWithContext", func(l Logger) { l.DebugWithContext(ctx, "msg") }, zapcore.DebugLevel},
		{"InfoWithContext", func(l Logger) { l.InfoWithContext(ctx, "msg") }, zapcore.InfoLevel},
		{"WarnWithContext", func(l Logger) { l.WarnWithContext(ctx, "msg") }, zapcore.WarnLevel},
		{"ErrorWithContext", func(l Logger) { l.ErrorWithContext(ctx, "msg") }, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, logs := observed()
			tt.log(l)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "msg", entry.Message)
			assert.Equal(t, tt.level, entry.Level)
			assert.Empty(t, entry.ContextMap())
		})
	}
}

func TestContextAddsTraceIDs(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l, logs := observed()
	l.InfoWithContext(ctx, "msg", zap.String("query", "code:x"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "code:x", fields["query"])
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}

func TestWith(t *testing.T) {
	l, logs := observed()
	child := l.With(zap.String("backend", "sql"))
	child.Info("one")
	l.Info("two")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, map[string]any{"backend": "sql"}, logs.All()[0].ContextMap())
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			l, err := NewLogger(format, level)
			require.NoError(t, err, "%s/%s", format, level)
			assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
		}
	}

	l, err := NewLogger("text", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewLogger("json", "none")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))

	_, err = NewLogger("json", "loud")
	require.ErrorContains(t, err, "unknown log level")
	_, err = NewLogger("xml", "info")
	require.ErrorContains(t, err, "unknown log format")

	assert.NotPanics(t, func() { NewNoopLogger().Error("ignored") })
}
