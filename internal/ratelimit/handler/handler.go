package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/ratelimit/models"
	"gatekeeper/internal/ratelimit/observability"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/requestcontext"
)

type Service interface {
	GetStatus(ctx context.Context, key models.LimitKey) (*models.Status, error)
	Clear(ctx context.Context, key models.LimitKey) (bool, error)
	Policies() map[models.PolicyName]models.SanitizedPolicy
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/rate-limit/status", h.HandleStatus)
	r.Post("/admin/rate-limit/clear", h.HandleClear)
	r.Get("/admin/rate-limit/policies", h.HandlePolicies)
}

// HandleStatus implements GET /admin/rate-limit/status?user_id=u1&policy=api.
// Either user_id or ip identifies the caller.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q := r.URL.Query()
	req := models.SubjectRequest{
		UserID: q.Get("user_id"),
		IP:     q.Get("ip"),
		Policy: q.Get("policy"),
	}
	if err := httputil.PrepareRequest(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid rate limit status request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.GetStatus(ctx, req.Key())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read rate limit status",
			"error", err,
			"policy", req.Policy,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewStatusResponse(status))
}

// HandleClear implements POST /admin/rate-limit/clear.
// Input: { "user_id": "u1", "policy": "api" } or { "ip": "1.2.3.4", "policy": "auth" }
// Output: { "cleared": true, "policy": "api" }
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SubjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	existed, err := h.service.Clear(ctx, req.Key())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to clear rate limit",
			"error", err,
			"policy", req.Policy,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	subject := []any{"policy", req.Policy, "existed", existed, "actor_id", admin.ActorID(ctx)}
	if req.UserID != "" {
		subject = append(subject, "user_id", req.UserID)
	} else {
		subject = append(subject, "ip", req.IP)
	}
	observability.LogAudit(ctx, h.logger, "rate_limit_cleared", subject...)

	httputil.WriteJSON(w, http.StatusOK, models.ClearResponse{Cleared: true, Policy: req.Policy})
}

// HandlePolicies implements GET /admin/rate-limit/policies.
func (h *Handler) HandlePolicies(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, models.PoliciesResponse{Policies: h.service.Policies()})
}
