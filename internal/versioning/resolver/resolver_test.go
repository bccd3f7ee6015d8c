package resolver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/versioning/models"
	dErrors "gatekeeper/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	now      time.Time
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := New(Config{
		Supported: []string{"v1", "v2"},
		Current:   "v2",
		Default:   "v1",
		Product:   "dashboard",
	}, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.resolver = r
}

func newRequest(target string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// =============================================================================
// Extraction
// =============================================================================

func (s *ResolverSuite) TestEachStrategyYieldsVersionAlone() {
	for _, version := range []string{"v1", "v2"} {
		s.Run("path "+version, func() {
			s.Equal(version, s.resolver.Extract(newRequest("/api/"+version+"/users", nil)))
		})
		s.Run("accept "+version, func() {
			req := newRequest("/api/users", map[string]string{"Accept": "application/vnd.dashboard." + version + "+json"})
			s.Equal(version, s.resolver.Extract(req))
		})
		s.Run("header "+version, func() {
			req := newRequest("/api/users", map[string]string{"X-API-Version": version})
			s.Equal(version, s.resolver.Extract(req))
		})
		s.Run("query "+version, func() {
			s.Equal(version, s.resolver.Extract(newRequest("/api/users?version="+version, nil)))
		})
	}
}

func (s *ResolverSuite) TestExtractionPriority() {
	s.Run("path beats header", func() {
		req := newRequest("/api/v2/users?version=v1", map[string]string{"X-API-Version": "v1"})
		s.Equal("v2", s.resolver.Extract(req))
	})

	s.Run("accept beats header", func() {
		req := newRequest("/api/users", map[string]string{
			"Accept":        "application/vnd.dashboard.v2+json",
			"X-API-Version": "v1",
		})
		s.Equal("v2", s.resolver.Extract(req))
	})

	s.Run("header beats query", func() {
		req := newRequest("/api/users?version=v1", map[string]string{"X-API-Version": "v2"})
		s.Equal("v2", s.resolver.Extract(req))
	})
}

func (s *ResolverSuite) TestExtractionFallbacks() {
	s.Run("default when nothing matches", func() {
		s.Equal("v1", s.resolver.Extract(newRequest("/api/users", nil)))
	})

	s.Run("header and query are lower-cased", func() {
		s.Equal("v2", s.resolver.Extract(newRequest("/api/users", map[string]string{"X-API-Version": "V2"})))
		s.Equal("v2", s.resolver.Extract(newRequest("/api/users?version=V2", nil)))
	})

	s.Run("non-matching path falls through", func() {
		req := newRequest("/api/version2/users", map[string]string{"X-API-Version": "v2"})
		s.Equal("v2", s.resolver.Extract(req))
	})

	s.Run("accept for another product is ignored", func() {
		req := newRequest("/api/users", map[string]string{"Accept": "application/vnd.other.v2+json"})
		s.Equal("v1", s.resolver.Extract(req))
	})

	s.Run("path version at end of path", func() {
		s.Equal("v2", s.resolver.Extract(newRequest("/api/v2", nil)))
	})
}

// =============================================================================
// Resolve
// =============================================================================

func (s *ResolverSuite) TestResolveSupported() {
	res, err := s.resolver.Resolve(newRequest("/api/users", map[string]string{"X-API-Version": "v1"}))
	s.Require().NoError(err)

	s.Equal("v1", res.Version.Requested)
	s.True(res.Version.Resolved)
	s.Nil(res.Version.Deprecation)
	s.Equal("v1", res.Headers.Get(HeaderVersion))
	s.Equal("v2", res.Headers.Get(HeaderCurrentVersion))
	s.Equal("v1,v2", res.Headers.Get(HeaderSupportedVersions))
	s.Empty(res.Headers.Get(HeaderDeprecationWarning))
}

func (s *ResolverSuite) TestResolveRejectsUnsupported() {
	for _, header := range []string{"v7", "V7", "latest", "1"} {
		s.Run(header, func() {
			_, err := s.resolver.Resolve(newRequest("/api/users", map[string]string{"X-API-Version": header}))

			var unsupported *models.UnsupportedVersionError
			s.Require().ErrorAs(err, &unsupported)
			s.Equal([]string{"v1", "v2"}, unsupported.SupportedVersions)
			s.Equal("v2", unsupported.CurrentVersion)
		})
	}

	s.Run("empty string is never supported", func() {
		s.False(s.resolver.Validate(""))
	})

	s.Run("casing matters for validation", func() {
		s.False(s.resolver.Validate("V1"))
	})
}

func (s *ResolverSuite) TestDeprecation() {
	sunset := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	rec, err := s.resolver.Deprecate("v1", &sunset, "migrate to v2")
	s.Require().NoError(err)
	s.True(rec.Deprecated)

	res, err := s.resolver.Resolve(newRequest("/api/v1/users", nil))
	s.Require().NoError(err)
	s.Require().NotNil(res.Version.Deprecation)
	s.Equal("migrate to v2", res.Headers.Get(HeaderDeprecationWarning))
	s.Equal("2027-01-31T00:00:00Z", res.Headers.Get(HeaderSunsetDate))

	s.Run("v2 unaffected", func() {
		res, err := s.resolver.Resolve(newRequest("/api/v2/users", nil))
		s.Require().NoError(err)
		s.Empty(res.Headers.Get(HeaderDeprecationWarning))
	})

	s.Run("default warning without message or sunset", func() {
		_, err := s.resolver.Deprecate("v2", nil, "")
		s.Require().NoError(err)
		res, err := s.resolver.Resolve(newRequest("/api/v2/users", nil))
		s.Require().NoError(err)
		s.Equal("API version v2 is deprecated", res.Headers.Get(HeaderDeprecationWarning))
		s.Empty(res.Headers.Get(HeaderSunsetDate))
	})

	s.Run("unsupported version cannot be deprecated", func() {
		_, err := s.resolver.Deprecate("v9", nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("snapshot is a copy", func() {
		snap := s.resolver.Deprecations()
		delete(snap, "v1")
		s.Contains(s.resolver.Deprecations(), "v1")
	})
}

func (s *ResolverSuite) TestConcurrentDeprecateAndResolve() {
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.resolver.Deprecate("v1", nil, "msg")
		}()
		go func() {
			defer wg.Done()
			_, err := s.resolver.Resolve(newRequest("/api/v1/items", nil))
			s.NoError(err, "iteration %d", i)
		}()
	}
	wg.Wait()
	s.True(s.resolver.Deprecations()["v1"].Deprecated)
}

// =============================================================================
// Formatting and compatibility
// =============================================================================

func (s *ResolverSuite) TestFormatResponse() {
	payload := map[string]int{"count": 3}

	s.Run("v1 envelope", func() {
		env, ok := s.resolver.FormatResponse(payload, "v1").(models.Envelope)
		s.Require().True(ok)
		s.True(env.Success)
		s.Equal(payload, env.Data)
		s.Equal("v1", env.Version)
		s.Equal(s.now, env.Timestamp)
	})

	s.Run("unknown version falls back to v1 shape", func() {
		env, ok := s.resolver.FormatResponse(payload, "v9").(models.Envelope)
		s.Require().True(ok)
		s.Equal("v9", env.Version)
	})

	s.Run("idempotent apart from timestamp", func() {
		first := s.resolver.FormatResponse(payload, "v1").(models.Envelope)
		s.now = s.now.Add(time.Minute)
		second := s.resolver.FormatResponse(payload, "v1").(models.Envelope)
		first.Timestamp, second.Timestamp = time.Time{}, time.Time{}
		s.Equal(first, second)
	})
}

func (s *ResolverSuite) TestCustomFormatter() {
	r, err := New(Config{Supported: []string{"v1", "v2"}, Current: "v2", Default: "v1"},
		WithFormatter("v2", func(payload any, version string, _ time.Time) any {
			return map[string]any{"result": payload, "apiVersion": version}
		}))
	s.Require().NoError(err)

	out, ok := r.FormatResponse("x", "v2").(map[string]any)
	s.Require().True(ok)
	s.Equal("x", out["result"])
}

func (s *ResolverSuite) TestIsCompatible() {
	cases := []struct {
		requested, target string
		want              bool
	}{
		{"v2", "v1", true},
		{"v1", "v1", true},
		{"v1", "v2", false},
		{"v10", "v9", true},
	}
	for _, tc := range cases {
		got, err := IsCompatible(tc.requested, tc.target)
		s.Require().NoError(err)
		s.Equal(tc.want, got, "%s vs %s", tc.requested, tc.target)
	}

	for _, bad := range [][2]string{{"vx", "v1"}, {"v1", "latest"}, {"", "v1"}} {
		_, err := IsCompatible(bad[0], bad[1])
		s.True(errors.Is(err, models.ErrMalformedVersion), "%v", bad)
	}
}

func (s *ResolverSuite) TestConfigValidate() {
	cases := map[string]Config{
		"no versions":           {},
		"malformed version":     {Supported: []string{"one"}, Current: "one", Default: "one"},
		"current not supported": {Supported: []string{"v1"}, Current: "v2", Default: "v1"},
		"default not supported": {Supported: []string{"v1"}, Current: "v1", Default: "v3"},
		"deprecation unknown": {
			Supported: []string{"v1"}, Current: "v1", Default: "v1",
			Deprecations: map[string]models.DeprecationRecord{"v4": {Deprecated: true}},
		},
	}
	for name, cfg := range cases {
		_, err := New(cfg)
		s.True(dErrors.HasCode(err, dErrors.CodeMisconfigured), name)
	}
}

func (s *ResolverSuite) TestCustomExtractors() {
	r, err := New(Config{Supported: []string{"v1", "v2"}, Current: "v2", Default: "v1"},
		WithExtractors(QueryExtractor("api")))
	s.Require().NoError(err)

	s.Equal("v2", r.Extract(newRequest("/api/v1/users?api=v2", nil)))
}
