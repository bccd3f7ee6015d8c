package request

import (
	"log/slog"
	"net/http"
	"time"

	"gatekeeper/pkg/platform/privacy"
	"gatekeeper/pkg/requestcontext"
)

// Logger writes one access log line per request. Server errors log at Warn.
// Successful requests under quietPath are skipped to keep probe noise out.
func Logger(logger *slog.Logger, quietPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)

			next.ServeHTTP(rec, r)

			status := rec.Status()
			if quietPath != "" && status < http.StatusInternalServerError && isUnder(r.URL.Path, quietPath) {
				return
			}

			ctx := r.Context()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("bytes", rec.BytesWritten()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", requestcontext.RequestID(ctx)),
				slog.String("remote_addr_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx))),
			}
			// Inner middleware writes these to the response; they never reach r.Context().
			if v := w.Header().Get("X-API-Version"); v != "" {
				attrs = append(attrs, slog.String("api_version", v))
			}
			if p := w.Header().Get("X-RateLimit-Policy"); p != "" {
				attrs = append(attrs, slog.String("rate_limit_policy", p))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "http request", attrs...)
		})
	}
}

func isUnder(path, base string) bool {
	return path == base || (len(path) > len(base) && path[:len(base)] == base && path[len(base)] == '/')
}
