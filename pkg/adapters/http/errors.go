package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/bookclub/pkg/admin"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/export"
	"github.com/aretw0/bookclub/pkg/flow"
	"github.com/aretw0/bookclub/pkg/runner"
)

// errorResponse is the JSON error body. View is set when the flow returned one
// alongside the error (a rejected submission carries its notice there).
type errorResponse struct {
	Error string     `json:"error"`
	View  *flow.View `json:"view,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, flow.ErrSubmissionInFlight), errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotReadyToSubmit),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, export.ErrNoPhone),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, flow.ErrSubmissionFailed):
		return http.StatusBadGateway
	case errors.Is(err, admin.ErrSharingDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	writeErrorView(w, err, nil, logger)
}

func writeErrorView(w http.ResponseWriter, err error, view *flow.View, logger *slog.Logger) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "status", status, "error", err)
	} else {
		logger.Debug("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), View: view}, logger)
}
