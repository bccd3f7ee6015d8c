package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/requestcontext"
)

// HeaderToken carries the shared admin secret.
const HeaderToken = "X-Admin-Token"

// HeaderActor optionally names the operator for audit attribution.
const HeaderActor = "X-Admin-Actor-ID"

type actorKey struct{}

// ActorID returns the admin actor recorded by RequireAdminToken, if any.
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok {
		return actor
	}
	return ""
}

// TokenVerifier checks a presented admin token.
type TokenVerifier interface {
	Verify(presented string) bool
}

// PlainToken compares against a configured secret in constant time.
type PlainToken string

func (t PlainToken) Verify(presented string) bool {
	if t == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(t)) == 1
}

// HashedToken compares against a bcrypt hash of the secret.
type HashedToken []byte

func (h HashedToken) Verify(presented string) bool {
	if len(h) == 0 || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(h, []byte(presented)) == nil
}

// HashToken produces a bcrypt hash suitable for HashedToken.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RequireAdminToken rejects requests whose X-Admin-Token does not verify.
func RequireAdminToken(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if verifier == nil || !verifier.Verify(r.Header.Get(HeaderToken)) {
				logger.WarnContext(ctx, "admin token mismatch",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			if actor := r.Header.Get(HeaderActor); actor != "" {
				ctx = context.WithValue(ctx, actorKey{}, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
