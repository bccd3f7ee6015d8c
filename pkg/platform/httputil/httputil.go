// Package httputil writes JSON responses and maps domain errors onto HTTP.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "gatekeeper/pkg/domain-errors"
)

type errorMapping struct {
	status int
	name   string
}

var internalMapping = errorMapping{http.StatusInternalServerError, "internal_error"}

// errorMappings gives each domain code its HTTP status and the value of the
// "error" field. Unlisted codes are internal errors.
var errorMappings = map[dErrors.Code]errorMapping{
	dErrors.CodeBadRequest:         {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:         {http.StatusBadRequest, "validation_error"},
	dErrors.CodeInvariantViolation: {http.StatusBadRequest, "validation_error"},
	dErrors.CodeNotFound:           {http.StatusNotFound, "not_found"},
	dErrors.CodeUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeForbidden:          {http.StatusForbidden, "forbidden"},
	dErrors.CodeUnavailable:        {http.StatusServiceUnavailable, "service_unavailable"},
	dErrors.CodeTimeout:            {http.StatusGatewayTimeout, "timeout"},
}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorMappings[code]; ok {
		return m
	}
	return internalMapping
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates transport-agnostic domain errors into HTTP responses.
// Server faults are reported without their message.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, internalMapping.status, map[string]string{"error": internalMapping.name})
		return
	}

	m := mappingFor(domainErr.Code)
	response := map[string]string{"error": m.name}
	if domainErr.Message != "" && !dErrors.IsServerFault(err) {
		response["error_description"] = domainErr.Message
	}
	WriteJSON(w, m.status, response)
}

// StatusFor returns the HTTP status WriteError would use for err.
func StatusFor(err error) int {
	return mappingFor(dErrors.CodeOf(err)).status
}
