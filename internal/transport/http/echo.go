package httptransport

import (
	"net/http"
	"time"

	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/requestcontext"
)

// Formatter renders a payload in the envelope of an API version.
type Formatter interface {
	FormatResponse(payload any, version string) any
}

// EchoResponse describes what the governance layer decided for a request.
type EchoResponse struct {
	Method     string     `json:"method"`
	Path       string     `json:"path"`
	APIVersion string     `json:"apiVersion,omitempty"`
	RateLimit  *RateLimit `json:"rateLimit,omitempty"`
}

type RateLimit struct {
	Policy    string    `json:"policy"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
	Degraded  bool      `json:"degraded,omitempty"`
}

// EchoHandler stands in for the business API: it reports the resolved version
// and quota, wrapped in the version's envelope when a formatter is given.
func EchoHandler(f Formatter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := EchoResponse{
			Method:     r.Method,
			Path:       r.URL.Path,
			APIVersion: requestcontext.APIVersion(ctx),
		}
		if rl, ok := requestcontext.RateLimitFrom(ctx); ok {
			resp.RateLimit = &RateLimit{
				Policy:    rl.Policy,
				Limit:     rl.Limit,
				Remaining: rl.Remaining,
				ResetTime: rl.ResetTime.UTC(),
				Degraded:  rl.Degraded,
			}
		}
		if f == nil {
			httputil.WriteJSON(w, http.StatusOK, resp)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, f.FormatResponse(resp, resp.APIVersion))
	})
}
