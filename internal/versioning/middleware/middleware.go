package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"gatekeeper/internal/versioning/metrics"
	"gatekeeper/internal/versioning/models"
	"gatekeeper/internal/versioning/resolver"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/requestcontext"
)

// Resolver is the subset of *resolver.Resolver the middleware needs.
type Resolver interface {
	Resolve(r *http.Request) (resolver.Resolution, error)
}

type Middleware struct {
	resolver Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func New(res Resolver, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	mw := &Middleware{resolver: res, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(mw)
		}
	}
	return mw
}

// Handler resolves the API version, sets the version headers, and stores the
// version in the request context. Unsupported versions get a 400.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		res, err := m.resolver.Resolve(r)
		if err != nil {
			var unsupported *models.UnsupportedVersionError
			if errors.As(err, &unsupported) {
				m.metrics.IncrementRejected()
				m.logger.DebugContext(ctx, "unsupported api version",
					"requested_version", unsupported.RequestedVersion,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusBadRequest, models.NewErrorResponse(unsupported))
				return
			}
			httputil.WriteError(w, err)
			return
		}

		version := res.Version.Requested
		for k, vals := range res.Headers {
			for _, v := range vals {
				w.Header().Add(k, v)
			}
		}
		m.metrics.IncrementResolved(version)

		if dep := res.Version.Deprecation; dep != nil {
			m.metrics.IncrementDeprecated(version)
			attrs := []any{
				"event", "api_version_deprecated_used",
				"api_version", version,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			}
			if dep.SunsetDate != nil {
				attrs = append(attrs, "sunset_date", dep.SunsetDate.Format("2006-01-02"))
			}
			m.logger.WarnContext(ctx, "deprecated api version used", attrs...)
		}

		ctx = requestcontext.WithAPIVersion(ctx, version)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
