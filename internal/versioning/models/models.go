package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedVersion is returned when a version token is not of the form "v{digits}".
var ErrMalformedVersion = errors.New("malformed API version")

// VersionContext is the per-request outcome of version resolution.
type VersionContext struct {
	Requested   string
	Resolved    bool
	Deprecation *DeprecationRecord
}

// DeprecationRecord marks a supported version as scheduled for removal.
type DeprecationRecord struct {
	Deprecated bool       `json:"deprecated"`
	SunsetDate *time.Time `json:"sunset_date,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// UnsupportedVersionError reports a requested version outside the supported set.
type UnsupportedVersionError struct {
	RequestedVersion  string
	SupportedVersions []string
	CurrentVersion    string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("API version %q is not supported (supported: %s)",
		e.RequestedVersion, strings.Join(e.SupportedVersions, ", "))
}

// Envelope is the v1 response shape.
type Envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
