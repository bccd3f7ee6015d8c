package models

import (
	"net/netip"
	"strings"

	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/validation"
)

// SubjectRequest names the counter an admin wants to inspect or clear:
// exactly one of UserID or IP, plus the policy.
type SubjectRequest struct {
	UserID string `json:"user_id,omitempty" validate:"omitempty,max=255"`
	IP     string `json:"ip,omitempty" validate:"omitempty,max=64"`
	Policy string `json:"policy" validate:"required"`

	policy PolicyName
}

func (r *SubjectRequest) Normalize() {
	if r == nil {
		return
	}
	r.UserID = strings.TrimSpace(r.UserID)
	r.IP = strings.TrimSpace(r.IP)
	r.Policy = strings.TrimSpace(r.Policy)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *SubjectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.UserID == "" && r.IP == "" {
		return dErrors.New(dErrors.CodeValidation, "one of user_id or ip is required")
	}
	if r.UserID != "" && r.IP != "" {
		return dErrors.New(dErrors.CodeValidation, "user_id and ip are mutually exclusive")
	}
	if r.IP != "" {
		addr, err := netip.ParseAddr(r.IP)
		if err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "invalid ip %q", r.IP)
		}
		r.IP = addr.Unmap().String()
	}
	p, err := ParsePolicyName(r.Policy)
	if err != nil {
		return err
	}
	r.policy = p
	return nil
}

// Key returns the limit key after a successful Validate.
func (r *SubjectRequest) Key() LimitKey {
	if r.UserID != "" {
		return NewUserKey(r.policy, r.UserID)
	}
	return NewIPKey(r.policy, r.IP)
}

func (r *SubjectRequest) PolicyName() PolicyName {
	return r.policy
}
