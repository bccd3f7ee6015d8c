// Package observability provides audit and security logging, throttled store
// warnings, and tracing for the ratelimit module.
package observability

import (
	"context"
	"log/slog"

	"gatekeeper/pkg/platform/privacy"
	"gatekeeper/pkg/requestcontext"
)

// LogAudit records an administrative mutation (clear, deprecate).
func LogAudit(ctx context.Context, logger *slog.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}
	args := withRequestID(ctx, attrs)
	args = append(args, "event", event, "log_type", "audit")
	logger.InfoContext(ctx, event, args...)
}

// LogSecurity records a denial worth flagging, such as repeated failed logins.
// The caller's address is anonymized and the user agent reduced to a device summary.
func LogSecurity(ctx context.Context, logger *slog.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}
	args := withRequestID(ctx, attrs)
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		args = append(args, "ip", privacy.AnonymizeIP(ip))
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		args = append(args, "device", DeviceSummary(ua))
	}
	args = append(args, "event", event, "log_type", "security")
	logger.WarnContext(ctx, event, args...)
}

func withRequestID(ctx context.Context, attrs []any) []any {
	args := make([]any, 0, len(attrs)+8)
	args = append(args, attrs...)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	return args
}
