package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type HealthSuite struct {
	suite.Suite
	handler *Handler
	router  chi.Router
}

func TestHealthSuite(t *testing.T) {
	suite.Run(t, new(HealthSuite))
}

func (s *HealthSuite) SetupTest() {
	s.handler = New("test")
	s.router = chi.NewRouter()
	s.handler.Register(s.router, "/health")
}

func (s *HealthSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *HealthSuite) readiness() (int, ReadinessResponse) {
	w := s.get("/health/ready")
	var resp ReadinessResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (s *HealthSuite) TestStatusAndLiveness() {
	w := s.get("/health")
	s.Equal(http.StatusOK, w.Code)
	var status StatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &status))
	s.Equal("healthy", status.Status)
	s.Equal("test", status.Environment)

	s.Equal(http.StatusOK, s.get("/health/live").Code)
}

func (s *HealthSuite) TestReadiness() {
	s.Run("ready with no checks", func() {
		code, resp := s.readiness()
		s.Equal(http.StatusOK, code)
		s.Equal(StatusReady, resp.Status)
	})

	s.Run("ready when all checks pass", func() {
		s.handler.RegisterCheck("config", func(context.Context) error { return nil })
		code, resp := s.readiness()
		s.Equal(http.StatusOK, code)
		s.Equal(StatusReady, resp.Status)
		s.Equal(StatusUp, resp.Checks["config"].Status)
		s.True(resp.Checks["config"].Critical)
	})

	s.Run("optional failure degrades", func() {
		s.handler.RegisterOptional("redis", func(context.Context) error { return errors.New("connection refused") })
		code, resp := s.readiness()
		s.Equal(http.StatusOK, code)
		s.Equal(StatusDegraded, resp.Status)
		s.Equal(StatusDown, resp.Checks["redis"].Status)
		s.Equal("connection refused", resp.Checks["redis"].Error)
		s.False(resp.Checks["redis"].Critical)
	})

	s.Run("critical failure is not ready", func() {
		s.handler.RegisterCheck("config", func(context.Context) error { return errors.New("policy file unreadable") })
		code, resp := s.readiness()
		s.Equal(http.StatusServiceUnavailable, code)
		s.Equal(StatusNotReady, resp.Status)
	})
}

func (s *HealthSuite) TestReadinessAppliesDeadline() {
	s.handler.checkTimeout = 20 * time.Millisecond
	s.handler.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := s.readiness()
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal("context deadline exceeded", resp.Checks["slow"].Error)
}

func (s *HealthSuite) TestCustomBasePath() {
	router := chi.NewRouter()
	s.handler.Register(router, "healthz/")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))
	s.Equal(http.StatusOK, w.Code)
}
