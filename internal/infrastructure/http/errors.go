package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"fxportal/internal/domain"
)

const unexpectedError = "An unexpected error occurred"

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Status: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, unexpectedError)
}

// upstreamStatus maps the cause of a failed flow to the portal's status: a
// nil cause is a local validation rejection, client errors of the FX service
// pass through, anything else is a bad gateway.
func upstreamStatus(cause error) int {
	if cause == nil {
		return http.StatusBadRequest
	}
	var apiErr *domain.APIError
	if errors.As(cause, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
