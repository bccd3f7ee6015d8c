package models

import (
	"strings"
)

// LimitKey scopes a counter to one policy and one caller.
type LimitKey struct {
	policy   PolicyName
	userID   string
	clientIP string
}

// NewUserKey keys the counter on an authenticated user.
func NewUserKey(policy PolicyName, userID string) LimitKey {
	return LimitKey{policy: policy, userID: userID}
}

// NewIPKey keys the counter on the caller's network address.
func NewIPKey(policy PolicyName, ip string) LimitKey {
	return LimitKey{policy: policy, clientIP: ip}
}

func (k LimitKey) Policy() PolicyName {
	return k.policy
}

// String returns "{policy}:user:{id}" or "{policy}:{ip}". Identifier segments
// are escaped so a crafted identifier cannot collide with another bucket.
func (k LimitKey) String() string {
	if k.userID != "" {
		return string(k.policy) + ":user:" + sanitizeKeySegment(k.userID)
	}
	return string(k.policy) + ":" + sanitizeKeySegment(k.clientIP)
}

// sanitizeKeySegment escapes '_' to '__' and then ':' to '_c'. The mapping is
// injective, and IPv6 addresses stay distinguishable from the "user:" form.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
