package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gatekeeper/internal/ratelimit/models"
)

// ErrMisconfiguredPolicy is returned when the policy table fails validation.
var ErrMisconfiguredPolicy = errors.New("misconfigured rate limit policy")

// Policy defines one limit tier. WindowMs and Max are fixed after startup.
type Policy struct {
	WindowMs               int64  `yaml:"windowMs"`
	Max                    int    `yaml:"max"`
	Message                string `yaml:"message"`
	SkipSuccessfulRequests bool   `yaml:"skipSuccessfulRequests"`
	SkipFailedRequests     bool   `yaml:"skipFailedRequests"`
}

func (p Policy) Window() time.Duration {
	return time.Duration(p.WindowMs) * time.Millisecond
}

// Deferred reports whether the response outcome decides if a request counts.
func (p Policy) Deferred() bool {
	return p.SkipSuccessfulRequests || p.SkipFailedRequests
}

// Config holds rate limiting configuration.
type Config struct {
	Policies map[models.PolicyName]Policy
}

// DefaultConfig returns the standard eight-tier table.
func DefaultConfig() *Config {
	const (
		minute  = int64(60_000)
		quarter = 15 * minute
		hour    = 60 * minute
	)
	return &Config{
		Policies: map[models.PolicyName]Policy{
			models.PolicyAuth: {
				WindowMs: quarter, Max: 5,
				Message:                "Too many authentication attempts, please try again later.",
				SkipSuccessfulRequests: true,
			},
			models.PolicyPasswordReset: {
				WindowMs: hour, Max: 3,
				Message: "Too many password reset attempts, please try again later.",
			},
			models.PolicyEmail: {
				WindowMs: hour, Max: 5,
				Message: "Too many email verification requests, please try again later.",
			},
			models.PolicyUpload: {
				WindowMs: quarter, Max: 20,
				Message: "Too many file uploads, please try again later.",
			},
			models.PolicyAPI: {
				WindowMs: quarter, Max: 1000,
				Message: "Too many API requests, please try again later.",
			},
			models.PolicyPublic: {
				WindowMs: quarter, Max: 100,
				Message: "Too many requests from this IP, please try again later.",
			},
			models.PolicyChat: {
				WindowMs: minute, Max: 30,
				Message: "Too many chat messages, please slow down.",
			},
			models.PolicySearch: {
				WindowMs: minute, Max: 30,
				Message: "Too many search requests, please try again later.",
			},
		},
	}
}

// Validate rejects unknown or missing policies and non-positive limits.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrMisconfiguredPolicy)
	}
	for name, p := range c.Policies {
		if !name.IsValid() {
			return fmt.Errorf("%w: unknown policy %q", ErrMisconfiguredPolicy, name)
		}
		if p.WindowMs <= 0 {
			return fmt.Errorf("%w: %s.windowMs must be positive", ErrMisconfiguredPolicy, name)
		}
		if p.Max <= 0 {
			return fmt.Errorf("%w: %s.max must be positive", ErrMisconfiguredPolicy, name)
		}
		if p.SkipSuccessfulRequests && p.SkipFailedRequests {
			return fmt.Errorf("%w: %s cannot skip both successful and failed requests", ErrMisconfiguredPolicy, name)
		}
	}
	for _, name := range models.AllPolicies() {
		if _, ok := c.Policies[name]; !ok {
			return fmt.Errorf("%w: missing policy %q", ErrMisconfiguredPolicy, name)
		}
	}
	return nil
}

// Policy returns the named policy.
func (c *Config) Policy(name models.PolicyName) (Policy, bool) {
	p, ok := c.Policies[name]
	return p, ok
}

// Sanitized exposes windowMs and max only.
func (c *Config) Sanitized() map[models.PolicyName]models.SanitizedPolicy {
	out := make(map[models.PolicyName]models.SanitizedPolicy, len(c.Policies))
	for name, p := range c.Policies {
		out[name] = models.SanitizedPolicy{WindowMs: p.WindowMs, Max: p.Max}
	}
	return out
}

// policyOverride allows partial YAML overrides; unset fields keep their defaults.
type policyOverride struct {
	WindowMs               *int64  `yaml:"windowMs"`
	Max                    *int    `yaml:"max"`
	Message                *string `yaml:"message"`
	SkipSuccessfulRequests *bool   `yaml:"skipSuccessfulRequests"`
	SkipFailedRequests     *bool   `yaml:"skipFailedRequests"`
}

type fileFormat struct {
	Policies map[string]policyOverride `yaml:"policies"`
}

// LoadFile overlays the YAML file at path onto base and validates the result.
//
//	policies:
//	  auth:
//	    max: 10
//	  search:
//	    windowMs: 30000
func LoadFile(path string, base *Config) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Overlay(raw, base)
}

// Overlay applies YAML overrides to a copy of base.
func Overlay(raw []byte, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	var file fileFormat
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parse policy file: %w", ErrMisconfiguredPolicy, err)
	}

	out := &Config{Policies: maps.Clone(base.Policies)}
	for rawName, o := range file.Policies {
		name := models.PolicyName(rawName)
		if !name.IsValid() {
			return nil, fmt.Errorf("%w: unknown policy %q", ErrMisconfiguredPolicy, rawName)
		}
		p := out.Policies[name]
		if o.WindowMs != nil {
			p.WindowMs = *o.WindowMs
		}
		if o.Max != nil {
			p.Max = *o.Max
		}
		if o.Message != nil {
			p.Message = *o.Message
		}
		if o.SkipSuccessfulRequests != nil {
			p.SkipSuccessfulRequests = *o.SkipSuccessfulRequests
		}
		if o.SkipFailedRequests != nil {
			p.SkipFailedRequests = *o.SkipFailedRequests
		}
		out.Policies[name] = p
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
