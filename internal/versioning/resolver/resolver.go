package resolver

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gatekeeper/internal/versioning/models"
	"gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
)

// Response headers set on every resolved request.
const (
	HeaderVersion            = "X-API-Version"
	HeaderCurrentVersion     = "X-API-Current-Version"
	HeaderSupportedVersions  = "X-API-Supported-Versions"
	HeaderDeprecationWarning = "X-API-Deprecation-Warning"
	HeaderSunsetDate         = "X-API-Sunset-Date"
)

// Config is the static version table loaded at startup.
type Config struct {
	Supported    []string
	Current      string
	Default      string
	Product      string
	Deprecations map[string]models.DeprecationRecord
}

func (c Config) Validate() error {
	if len(c.Supported) == 0 {
		return dErrors.New(dErrors.CodeMisconfigured, "at least one supported API version is required")
	}
	for _, v := range c.Supported {
		if _, err := domain.ParseAPIVersion(v); err != nil {
			return dErrors.Newf(dErrors.CodeMisconfigured, "invalid supported API version %q", v)
		}
	}
	if !slices.Contains(c.Supported, c.Current) {
		return dErrors.Newf(dErrors.CodeMisconfigured, "current API version %q is not supported", c.Current)
	}
	if !slices.Contains(c.Supported, c.Default) {
		return dErrors.Newf(dErrors.CodeMisconfigured, "default API version %q is not supported", c.Default)
	}
	for v := range c.Deprecations {
		if !slices.Contains(c.Supported, v) {
			return dErrors.Newf(dErrors.CodeMisconfigured, "deprecation for unsupported API version %q", v)
		}
	}
	return nil
}

// Formatter shapes an outbound payload for one API version.
type Formatter func(payload any, version string, now time.Time) any

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Version models.VersionContext
	Headers http.Header
}

// Resolver negotiates the API version of a request.
// The deprecation table is copy-on-write: readers never take a lock.
type Resolver struct {
	supported  []string
	current    string
	def        string
	extractors []Extractor
	formatters map[string]Formatter
	now        func() time.Time

	writeMu      sync.Mutex
	deprecations atomic.Pointer[map[string]models.DeprecationRecord]
}

type Option func(*Resolver)

// WithExtractors replaces the default extraction strategies.
func WithExtractors(extractors ...Extractor) Option {
	return func(r *Resolver) {
		if len(extractors) > 0 {
			r.extractors = extractors
		}
	}
}

// WithFormatter registers a response formatter for version.
func WithFormatter(version string, f Formatter) Option {
	return func(r *Resolver) {
		if f != nil {
			r.formatters[version] = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func New(cfg Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		supported:  slices.Clone(cfg.Supported),
		current:    cfg.Current,
		def:        cfg.Default,
		extractors: DefaultExtractors(cfg.Product),
		formatters: map[string]Formatter{string(domain.APIVersionV1): formatV1},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	table := maps.Clone(cfg.Deprecations)
	if table == nil {
		table = map[string]models.DeprecationRecord{}
	}
	r.deprecations.Store(&table)
	return r, nil
}

// Extract returns the first version any extractor yields, or the default version.
func (r *Resolver) Extract(req *http.Request) string {
	for _, e := range r.extractors {
		if v, ok := e.Extract(req); ok {
			return v
		}
	}
	return r.def
}

// Validate is an exact membership test against the supported set.
func (r *Resolver) Validate(version string) bool {
	return slices.Contains(r.supported, version)
}

// Resolve extracts and validates the version and computes the response headers.
// An unsupported version yields *models.UnsupportedVersionError.
func (r *Resolver) Resolve(req *http.Request) (Resolution, error) {
	requested := r.Extract(req)
	if !r.Validate(requested) {
		return Resolution{}, &models.UnsupportedVersionError{
			RequestedVersion:  requested,
			SupportedVersions: r.Supported(),
			CurrentVersion:    r.current,
		}
	}

	vc := models.VersionContext{Requested: requested, Resolved: true}
	headers := http.Header{}
	headers.Set(HeaderVersion, requested)
	headers.Set(HeaderCurrentVersion, r.current)
	headers.Set(HeaderSupportedVersions, strings.Join(r.supported, ","))

	if rec, ok := (*r.deprecations.Load())[requested]; ok && rec.Deprecated {
		vc.Deprecation = &rec
		warning := rec.Message
		if warning == "" {
			warning = fmt.Sprintf("API version %s is deprecated", requested)
		}
		headers.Set(HeaderDeprecationWarning, warning)
		if rec.SunsetDate != nil {
			headers.Set(HeaderSunsetDate, rec.SunsetDate.UTC().Format(time.RFC3339))
		}
	}
	return Resolution{Version: vc, Headers: headers}, nil
}

// Deprecate marks a supported version as deprecated, replacing any previous record.
func (r *Resolver) Deprecate(version string, sunset *time.Time, message string) (models.DeprecationRecord, error) {
	if !r.Validate(version) {
		return models.DeprecationRecord{}, dErrors.Newf(dErrors.CodeNotFound, "API version %q is not supported", version)
	}
	rec := models.DeprecationRecord{Deprecated: true, Message: message}
	if sunset != nil {
		s := sunset.UTC()
		rec.SunsetDate = &s
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	next := maps.Clone(*r.deprecations.Load())
	next[version] = rec
	r.deprecations.Store(&next)
	return rec, nil
}

// Deprecations returns a snapshot of the deprecation table.
func (r *Resolver) Deprecations() map[string]models.DeprecationRecord {
	return maps.Clone(*r.deprecations.Load())
}

func (r *Resolver) Supported() []string {
	return slices.Clone(r.supported)
}

func (r *Resolver) Current() string { return r.current }

func (r *Resolver) Default() string { return r.def }

// FormatResponse wraps payload in the shape registered for version.
// Unknown versions get the v1 envelope; formatting never fails.
func (r *Resolver) FormatResponse(payload any, version string) any {
	f, ok := r.formatters[version]
	if !ok {
		f = formatV1
	}
	return f(payload, version, r.now())
}

func formatV1(payload any, version string, now time.Time) any {
	return models.Envelope{
		Success:   true,
		Data:      payload,
		Timestamp: now.UTC(),
		Version:   version,
	}
}

// IsCompatible reports whether requested is the same as or newer than target.
// Either side not of the form "v{digits}" yields an error wrapping models.ErrMalformedVersion.
func IsCompatible(requested, target string) (bool, error) {
	req, err := domain.ParseAPIVersion(requested)
	if err != nil {
		return false, fmt.Errorf("%w: requested %q", models.ErrMalformedVersion, requested)
	}
	tgt, err := domain.ParseAPIVersion(target)
	if err != nil {
		return false, fmt.Errorf("%w: target %q", models.ErrMalformedVersion, target)
	}
	return req.IsAtLeast(tgt), nil
}
