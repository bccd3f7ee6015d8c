package models

import (
	"net/url"
	"strings"
	"time"

	dErrors "gatekeeper/pkg/domain-errors"
)

// PolicyName identifies a limit tier.
type PolicyName string

const (
	PolicyAuth          PolicyName = "auth"
	PolicyPasswordReset PolicyName = "passwordReset"
	PolicyEmail         PolicyName = "email"
	PolicyUpload        PolicyName = "upload"
	PolicyAPI           PolicyName = "api"
	PolicyPublic        PolicyName = "public"
	PolicyChat          PolicyName = "chat"
	PolicySearch        PolicyName = "search"
)

// AllPolicies lists every tier in classification order.
func AllPolicies() []PolicyName {
	return []PolicyName{
		PolicyAuth, PolicyPasswordReset, PolicyEmail, PolicyUpload,
		PolicyAPI, PolicyPublic, PolicyChat, PolicySearch,
	}
}

func (p PolicyName) IsValid() bool {
	switch p {
	case PolicyAuth, PolicyPasswordReset, PolicyEmail, PolicyUpload,
		PolicyAPI, PolicyPublic, PolicyChat, PolicySearch:
		return true
	}
	return false
}

func (p PolicyName) String() string {
	return string(p)
}

// ParsePolicyName validates a policy name supplied by config or an admin request.
func ParsePolicyName(s string) (PolicyName, error) {
	p := PolicyName(strings.TrimSpace(s))
	if p == "" {
		return "", dErrors.New(dErrors.CodeValidation, "policy is required")
	}
	if !p.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown rate limit policy %q", s)
	}
	return p, nil
}

// ErrorCode is the machine-readable denial code, e.g. RATE_LIMIT_PASSWORD_RESET.
func (p PolicyName) ErrorCode() string {
	var b strings.Builder
	b.WriteString("RATE_LIMIT_")
	for i, r := range string(p) {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// IsSecuritySensitive reports whether denials on this tier are logged as security events.
func (p PolicyName) IsSecuritySensitive() bool {
	return p == PolicyAuth || p == PolicyPasswordReset || p == PolicyEmail
}

// RequestInfo is the transport-independent view of a request the governor needs.
type RequestInfo struct {
	Method string
	Path   string
	Query  url.Values
	UserID string
	Role   string
	IP     string
}

// Authenticated reports whether the request carries a user identity.
func (r RequestInfo) Authenticated() bool {
	return r.UserID != ""
}

// Decision is the outcome of a pre-request check.
type Decision struct {
	Allowed bool
	// Exempt requests bypass limiting entirely and carry no quota.
	Exempt bool
	// Degraded is set when the store could not be consulted and the request was let through.
	Degraded bool
	// Deferred is set when the post-response hook may return the reserved unit.
	Deferred bool

	Policy     PolicyName
	Key        string
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
	WindowMs   int64
	Message    string
}

// ErrorCode returns the denial code for the decision's policy.
func (d *Decision) ErrorCode() string {
	return d.Policy.ErrorCode()
}

// Status is a read-only projection of a counter.
type Status struct {
	Policy    PolicyName
	Key       string
	Available bool
	Limit     int
	Remaining int
	Count     int
	ResetTime *time.Time
}
