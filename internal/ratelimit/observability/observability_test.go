package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gatekeeper/pkg/requestcontext"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogAudit(t *testing.T) {
	logger, buf := newBufferLogger()
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")

	LogAudit(ctx, logger, "rate_limit_cleared", "policy", "api", "actor_id", "ops")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "audit", lines[0]["log_type"])
	assert.Equal(t, "rate_limit_cleared", lines[0]["event"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "ops", lines[0]["actor_id"])
}

func TestLogSecurityAnonymizesCaller(t *testing.T) {
	logger, buf := newBufferLogger()
	ctx := requestcontext.WithClientMetadata(context.Background(), "1.2.3.4",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	LogSecurity(ctx, logger, "rate_limit_exceeded", "policy", "auth")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "security", lines[0]["log_type"])
	assert.Equal(t, "1.2.3.0", lines[0]["ip"])
	assert.Equal(t, "bot", lines[0]["device"])
	assert.NotContains(t, buf.String(), "1.2.3.4")
}

func TestNilLoggerIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAudit(context.Background(), nil, "event")
		LogSecurity(context.Background(), nil, "event")
		NewStoreWarner(nil, 0).Warn(context.Background(), "get", errors.New("boom"))
	})
}

func TestDeviceSummary(t *testing.T) {
	assert.Equal(t, "unknown", DeviceSummary(""))
	assert.Equal(t, "bot", DeviceSummary("Googlebot/2.1 (+http://www.google.com/bot.html)"))

	chrome := DeviceSummary("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.True(t, strings.HasPrefix(chrome, "chrome on "), chrome)
}

func TestStoreWarnerThrottles(t *testing.T) {
	logger, buf := newBufferLogger()
	w := NewStoreWarner(logger, time.Hour)
	ctx := context.Background()

	for range 5 {
		w.Warn(ctx, "increment", errors.New("connection refused"), "policy", "api")
	}

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "increment", lines[0]["op"])
	assert.Equal(t, "connection refused", lines[0]["error"])
	assert.EqualValues(t, 0, lines[0]["suppressed"])
	assert.EqualValues(t, 4, w.suppressed.Load())
}

func TestTracer(t *testing.T) {
	tr := NewTracer(noop.NewTracerProvider().Tracer("test"))
	ctx, span := tr.Start(context.Background(), SpanCheck)
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() { EndSpan(span, errors.New("store down")) })

	var nilTracer *Tracer
	_, span = nilTracer.Start(context.Background(), SpanRecord)
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}
