package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gatekeeper/internal/versioning/handler/mocks"
	"gatekeeper/internal/versioning/models"
	dErrors "gatekeeper/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/api-versions/deprecate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) TestList() {
	s.mockService.EXPECT().Supported().Return([]string{"v1", "v2"})
	s.mockService.EXPECT().Current().Return("v2")
	s.mockService.EXPECT().Default().Return("v1")
	s.mockService.EXPECT().Deprecations().Return(map[string]models.DeprecationRecord{
		"v1": {Deprecated: true, Message: "bye"},
	})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/api-versions", nil))

	s.Equal(http.StatusOK, w.Code)
	var resp models.VersionsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal([]string{"v1", "v2"}, resp.Supported)
	s.True(resp.Deprecations["v1"].Deprecated)
}

func (s *HandlerSuite) TestDeprecate() {
	s.Run("success", func() {
		sunset := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
		s.mockService.EXPECT().
			Deprecate("v1", gomock.Eq(&sunset), "use v2").
			Return(models.DeprecationRecord{Deprecated: true, SunsetDate: &sunset, Message: "use v2"}, nil)

		w := s.post(`{"version":"V1","sunset_date":"2027-01-31","message":"use v2"}`)

		s.Equal(http.StatusOK, w.Code)
		var resp models.DeprecateResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("v1", resp.Version)
		s.True(resp.Deprecation.Deprecated)
	})

	s.Run("invalid JSON", func() {
		w := s.post("not json")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("validation error never reaches service", func() {
		w := s.post(`{"version":"latest"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown version", func() {
		s.mockService.EXPECT().Deprecate("v9", gomock.Nil(), "").
			Return(models.DeprecationRecord{}, dErrors.New(dErrors.CodeNotFound, "API version \"v9\" is not supported"))

		w := s.post(`{"version":"v9"}`)
		s.Equal(http.StatusNotFound, w.Code)
		s.Contains(w.Body.String(), "not_found")
	})
}

func (s *HandlerSuite) TestDeprecateBodyTooLarge() {
	big := bytes.Repeat([]byte("a"), 70*1024)
	w := s.post(`{"version":"v1","message":"` + string(big) + `"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}
