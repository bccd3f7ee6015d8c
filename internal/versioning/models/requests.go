package models

import (
	"strings"
	"time"

	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/validation"
)

// DeprecateRequest is the admin payload for marking a version deprecated.
type DeprecateRequest struct {
	Version    string `json:"version" validate:"required,max=16"`
	SunsetDate string `json:"sunset_date,omitempty" validate:"omitempty,max=64"`
	Message    string `json:"message,omitempty" validate:"max=500"`

	sunset *time.Time
}

func (r *DeprecateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Version = strings.ToLower(strings.TrimSpace(r.Version))
	r.SunsetDate = strings.TrimSpace(r.SunsetDate)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate checks the version token and parses the optional sunset date,
// accepted as RFC 3339 or a bare YYYY-MM-DD.
func (r *DeprecateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if _, err := domain.ParseAPIVersion(r.Version); err != nil {
		return err
	}
	if r.SunsetDate == "" {
		r.sunset = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, r.SunsetDate); err == nil {
			t = t.UTC()
			r.sunset = &t
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeValidation, "sunset_date %q must be RFC 3339 or YYYY-MM-DD", r.SunsetDate)
}

// Sunset returns the parsed sunset date after a successful Validate.
func (r *DeprecateRequest) Sunset() *time.Time {
	return r.sunset
}
