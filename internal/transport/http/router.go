package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/platform/health"
	"gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/platform/middleware/auth"
	"gatekeeper/pkg/platform/middleware/metadata"
	"gatekeeper/pkg/platform/middleware/request"
)

// AdminRoutes is implemented by module handlers that expose admin endpoints.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

// Deps is everything the router wires together. Optional fields may be nil.
type Deps struct {
	Logger     *slog.Logger
	HealthPath string

	Health         *health.Handler
	Metrics        http.Handler
	RequestMetrics *request.Metrics
	ClientMetadata *metadata.Middleware

	// Identity validates bearer tokens; nil leaves every caller anonymous.
	Identity      auth.JWTValidator
	AdminVerifier admin.TokenVerifier

	Versioning func(http.Handler) http.Handler
	RateLimit  func(http.Handler) http.Handler

	Admin []AdminRoutes

	// Downstream serves /api/*. Defaults to the echo handler.
	Downstream http.Handler
}

// NewRouter builds the middleware chain:
//
//	recovery -> request id -> client ip -> logging -> instrumentation
//	  /api/*:  identity -> version -> rate limit -> downstream
//	  /admin/*: admin token -> module admin routes
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	healthPath := d.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	clientMetadata := d.ClientMetadata
	if clientMetadata == nil {
		clientMetadata = metadata.NewMiddleware(nil)
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(clientMetadata.Handler)
	r.Use(request.Logger(logger, healthPath))
	if d.RequestMetrics != nil {
		r.Use(request.Instrument(d.RequestMetrics))
	}

	if d.Health != nil {
		d.Health.Register(r, healthPath)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.OptionalIdentity(d.Identity, logger))
		if d.Versioning != nil {
			api.Use(d.Versioning)
		}
		if d.RateLimit != nil {
			api.Use(d.RateLimit)
		}
		api.Use(request.ContentTypeJSON)

		downstream := d.Downstream
		if downstream == nil {
			downstream = EchoHandler(nil)
		}
		api.Handle("/*", downstream)
	})

	if len(d.Admin) > 0 {
		r.Group(func(ar chi.Router) {
			ar.Use(admin.RequireAdminToken(d.AdminVerifier, logger))
			ar.Use(request.ContentTypeJSON)
			for _, routes := range d.Admin {
				routes.RegisterAdmin(ar)
			}
		})
	}

	return r
}
