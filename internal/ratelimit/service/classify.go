package service

import (
	"net/http"
	"strings"

	"gatekeeper/internal/ratelimit/models"
	"gatekeeper/pkg/requestcontext"
)

// unknownIP keys anonymous callers whose address could not be resolved.
const unknownIP = "unknown"

// searchParams mark a request as a search regardless of its path.
var searchParams = []string{"q", "search", "query"}

// Classify maps a request to a policy. Rules are checked in order and the
// first match wins; path matching is case-insensitive.
func (g *Governor) Classify(req models.RequestInfo) models.PolicyName {
	return Classify(req)
}

func Classify(req models.RequestInfo) models.PolicyName {
	path := strings.ToLower(req.Path)
	switch {
	case containsAny(path, "/auth/login", "/auth/register"):
		return models.PolicyAuth
	case containsAny(path, "/auth/forgot-password", "/auth/reset-password"):
		return models.PolicyPasswordReset
	case containsAny(path, "/auth/verify-email", "/auth/resend-verification"):
		return models.PolicyEmail
	case strings.Contains(path, "/upload"):
		return models.PolicyUpload
	case strings.Contains(path, "/chat") && isMutating(req.Method):
		return models.PolicyChat
	case strings.Contains(path, "/search") || hasSearchParam(req):
		return models.PolicySearch
	case req.Authenticated():
		return models.PolicyAPI
	default:
		return models.PolicyPublic
	}
}

// DeriveKey scopes the counter to the user when authenticated, else to the caller's address.
func DeriveKey(req models.RequestInfo, policy models.PolicyName) models.LimitKey {
	if req.Authenticated() {
		return models.NewUserKey(policy, req.UserID)
	}
	ip := req.IP
	if ip == "" {
		ip = unknownIP
	}
	return models.NewIPKey(policy, ip)
}

func (g *Governor) isExempt(req models.RequestInfo) bool {
	if req.Authenticated() && req.Role == requestcontext.RoleAdmin {
		return true
	}
	if g.healthPath == "" {
		return false
	}
	return req.Path == g.healthPath || strings.HasPrefix(req.Path, strings.TrimSuffix(g.healthPath, "/")+"/")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func hasSearchParam(req models.RequestInfo) bool {
	for _, p := range searchParams {
		if req.Query.Has(p) {
			return true
		}
	}
	return false
}
