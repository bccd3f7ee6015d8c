package models

import "time"

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Error   string                   `json:"error"`
	Details RateLimitExceededDetails `json:"details"`
}

type RateLimitExceededDetails struct {
	RetryAfter int   `json:"retryAfter"`
	Limit      int   `json:"limit"`
	WindowMs   int64 `json:"windowMs"`
}

// NewRateLimitExceededResponse renders a denied decision.
func NewRateLimitExceededResponse(d *Decision) RateLimitExceededResponse {
	return RateLimitExceededResponse{
		Success: false,
		Message: d.Message,
		Error:   d.ErrorCode(),
		Details: RateLimitExceededDetails{
			RetryAfter: d.RetryAfter,
			Limit:      d.Limit,
			WindowMs:   d.WindowMs,
		},
	}
}

type StatusResponse struct {
	Policy    string     `json:"policy"`
	Available bool       `json:"available"`
	Limit     int        `json:"limit"`
	Remaining int        `json:"remaining"`
	ResetTime *time.Time `json:"resetTime,omitempty"`
}

func NewStatusResponse(s *Status) StatusResponse {
	return StatusResponse{
		Policy:    string(s.Policy),
		Available: s.Available,
		Limit:     s.Limit,
		Remaining: s.Remaining,
		ResetTime: s.ResetTime,
	}
}

type ClearResponse struct {
	Cleared bool   `json:"cleared"`
	Policy  string `json:"policy"`
}

// SanitizedPolicy exposes a policy's numbers without its message text.
type SanitizedPolicy struct {
	WindowMs int64 `json:"windowMs"`
	Max      int   `json:"max"`
}

type PoliciesResponse struct {
	Policies map[PolicyName]SanitizedPolicy `json:"policies"`
}
