package domain

import (
	"strconv"
	"strings"

	dErrors "gatekeeper/pkg/domain-errors"
)

// APIVersion is an API version token of the form "v{digits}", e.g. "v1".
type APIVersion string

const APIVersionV1 APIVersion = "v1"

// ParseAPIVersion accepts only the canonical lower-case "v{digits}" form.
// Anything else is a validation error rather than a silently false comparison.
func ParseAPIVersion(s string) (APIVersion, error) {
	if _, ok := versionNumber(s); !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "malformed API version %q", s)
	}
	return APIVersion(s), nil
}

func (v APIVersion) String() string {
	return string(v)
}

func (v APIVersion) IsNil() bool {
	return v == ""
}

// Number returns the numeric suffix. Unparsed values report 0.
func (v APIVersion) Number() int {
	n, _ := versionNumber(string(v))
	return n
}

// IsAtLeast reports whether v is the same as or newer than other.
// Both versions must be well formed; a malformed side never compares as newer.
func (v APIVersion) IsAtLeast(other APIVersion) bool {
	a, okA := versionNumber(string(v))
	b, okB := versionNumber(string(other))
	if !okA {
		return false
	}
	if !okB {
		return true
	}
	return a >= b
}

func versionNumber(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, "v")
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
