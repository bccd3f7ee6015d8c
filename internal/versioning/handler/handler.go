package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/versioning/models"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/requestcontext"
)

// Service is the version table as seen by administrators.
type Service interface {
	Deprecate(version string, sunset *time.Time, message string) (models.DeprecationRecord, error)
	Deprecations() map[string]models.DeprecationRecord
	Supported() []string
	Current() string
	Default() string
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the version admin routes. Callers wrap r with admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/api-versions", h.HandleList)
	r.Post("/admin/api-versions/deprecate", h.HandleDeprecate)
}

// HandleList implements GET /admin/api-versions.
func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, models.VersionsResponse{
		Supported:    h.service.Supported(),
		Current:      h.service.Current(),
		Default:      h.service.Default(),
		Deprecations: h.service.Deprecations(),
	})
}

// HandleDeprecate implements POST /admin/api-versions/deprecate.
//
// Input: { "version": "v1", "sunset_date": "2027-01-31", "message": "..." }
func (h *Handler) HandleDeprecate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.DeprecateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Deprecate(req.Version, req.Sunset(), req.Message)
	if err != nil {
		level := slog.LevelWarn
		if httputil.StatusFor(err) >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "failed to deprecate api version",
			"error", err,
			"api_version", req.Version,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "api version deprecated",
		"log_type", "audit",
		"api_version", req.Version,
		"sunset_date", req.SunsetDate,
		"actor", admin.ActorID(ctx),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, models.DeprecateResponse{Version: req.Version, Deprecation: rec})
}
