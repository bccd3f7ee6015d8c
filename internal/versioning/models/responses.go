package models

// ErrorResponse is the body of a version rejection.
type ErrorResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Error   string                    `json:"error"`
	Details UnsupportedVersionDetails `json:"details"`
}

type UnsupportedVersionDetails struct {
	RequestedVersion  string   `json:"requestedVersion"`
	SupportedVersions []string `json:"supportedVersions"`
	CurrentVersion    string   `json:"currentVersion"`
}

// ErrorCodeUnsupportedVersion is the machine-readable code for a rejected version.
const ErrorCodeUnsupportedVersion = "UNSUPPORTED_API_VERSION"

// NewErrorResponse renders an UnsupportedVersionError.
func NewErrorResponse(err *UnsupportedVersionError) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: err.Error(),
		Error:   ErrorCodeUnsupportedVersion,
		Details: UnsupportedVersionDetails{
			RequestedVersion:  err.RequestedVersion,
			SupportedVersions: err.SupportedVersions,
			CurrentVersion:    err.CurrentVersion,
		},
	}
}

// VersionsResponse lists the version table for admin tooling.
type VersionsResponse struct {
	Supported    []string                     `json:"supported"`
	Current      string                       `json:"current"`
	Default      string                       `json:"default"`
	Deprecations map[string]DeprecationRecord `json:"deprecations"`
}

type DeprecateResponse struct {
	Version     string            `json:"version"`
	Deprecation DeprecationRecord `json:"deprecation"`
}
