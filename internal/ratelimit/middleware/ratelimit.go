package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"gatekeeper/internal/ratelimit/models"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/middleware/request"
	"gatekeeper/pkg/requestcontext"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderPolicy     = "X-RateLimit-Policy"
	HeaderStatus     = "X-RateLimit-Status"
	HeaderRetryAfter = "Retry-After"
)

// Governor is the subset of *service.Governor the middleware needs.
type Governor interface {
	Check(ctx context.Context, req models.RequestInfo) *models.Decision
	Record(ctx context.Context, d *models.Decision, status int)
}

type Middleware struct {
	governor Governor
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(governor Governor, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Middleware{governor: governor, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Handler gates each request through the governor. Allowed requests carry
// quota headers; denied ones get a 429. For deferred policies the response
// status is fed back to the governor once the handler returns.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.disabled {
		m.logger.Warn("rate limiting is disabled")
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		d := m.governor.Check(ctx, RequestInfoFrom(r))
		if d == nil || d.Exempt {
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, d)
		if !d.Allowed {
			writeRateLimitExceeded(w, d)
			return
		}

		ctx = requestcontext.WithRateLimit(ctx, requestcontext.RateLimit{
			Policy:    d.Policy.String(),
			Limit:     d.Limit,
			Remaining: d.Remaining,
			ResetTime: d.ResetAt,
			Degraded:  d.Degraded,
		})
		r = r.WithContext(ctx)

		if !d.Deferred || d.Degraded {
			next.ServeHTTP(w, r)
			return
		}

		rec := request.NewStatusRecorder(w)
		defer func() {
			if p := recover(); p != nil {
				m.governor.Record(ctx, d, http.StatusInternalServerError)
				panic(p)
			}
		}()
		next.ServeHTTP(rec, r)
		m.governor.Record(ctx, d, rec.Status())
	})
}

// RequestInfoFrom builds the governor's view of r from the request and the
// identity and client address placed in its context upstream.
func RequestInfoFrom(r *http.Request) models.RequestInfo {
	ctx := r.Context()
	info := models.RequestInfo{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		IP:     requestcontext.ClientIP(ctx),
	}
	if id := requestcontext.IdentityFrom(ctx); id != nil {
		info.UserID = id.UserID
		info.Role = id.Role
	}
	return info
}

func addRateLimitHeaders(w http.ResponseWriter, d *models.Decision) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	h.Set(HeaderPolicy, d.Policy.String())
	if d.Degraded {
		h.Set(HeaderStatus, "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, d *models.Decision) {
	w.Header().Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, models.NewRateLimitExceededResponse(d))
}
