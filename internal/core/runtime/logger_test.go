package runtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(LogLevelWarn, &buf)

	logger.Debug(context.Background(), "debug entry")
	logger.Info(context.Background(), "info entry")
	logger.Warn(context.Background(), "warn entry")
	logger.Error(context.Background(), "error entry", errors.New("boom"))

	out := buf.String()
	require.NotContains(t, out, "debug entry")
	require.NotContains(t, out, "info entry")
	require.Contains(t, out, "[WARN] warn entry")
	require.Contains(t, out, `[ERROR] [error="boom"] error entry`)
}

func TestStdLoggerFieldsAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := NewStdLogger(LogLevelDebug, &buf)
	scoped := base.WithFields(Field("component", "runner"))

	ctx := WithTraceID(context.Background(), "trace-1")
	scoped.Info(ctx, "hello", Field("files", 2))
	base.Info(context.Background(), "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "fields=[component=runner files=2 trace_id=trace-1]")
	require.NotContains(t, lines[1], "component=runner")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		" Info ":  LogLevelInfo,
		"warning": LogLevelWarn,
		"ERROR":   LogLevelError,
	}
	for input, want := range cases {
		got, err := ParseLogLevel(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseLogLevel("chatty")
	require.Error(t, err)
}

func TestNewStdLoggerWithNilWriter(t *testing.T) {
	logger := NewStdLogger(LogLevelDebug, nil)
	require.NotPanics(t, func() {
		logger.Error(context.Background(), "discarded", errors.New("x"))
	})
}
