package web

// Request-level failures are answered with ErrorResponse. The support code
// comes from core.MapError.

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/logging"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Import.MaxWaitTime.Seconds())))
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Message: userMsg.Message,
		Error:   err.Error(),
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor picks the HTTP status for a request-level error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownEndpoint):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case core.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
