// Package requestcontext holds typed accessors for values the middleware chain
// attaches to a request context. Downstream handlers read from here instead of
// depending on the middleware packages that populate it.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
	identityKey  struct{}
	versionKey   struct{}
	rateLimitKey struct{}
)

// RoleAdmin is the role claim that exempts a caller from rate limiting.
const RoleAdmin = "admin"

// Identity is the authenticated caller, as established by the auth middleware.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity carries the administrative role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// RateLimit is the quota snapshot attached for downstream consumption.
type RateLimit struct {
	Policy    string
	Limit     int
	Remaining int
	ResetTime time.Time
	Degraded  bool
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, ip)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the authenticated identity, or nil for anonymous callers.
func IdentityFrom(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok && v != nil && v.UserID != "" {
		return v
	}
	return nil
}

func WithAPIVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey{}, version)
}

func APIVersion(ctx context.Context) string {
	if v, ok := ctx.Value(versionKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRateLimit(ctx context.Context, rl RateLimit) context.Context {
	return context.WithValue(ctx, rateLimitKey{}, rl)
}

func RateLimitFrom(ctx context.Context) (RateLimit, bool) {
	v, ok := ctx.Value(rateLimitKey{}).(RateLimit)
	return v, ok
}
