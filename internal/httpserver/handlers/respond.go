package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/httpserver/dto"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps err to a status code and writes it. Business rule
// violations are listed with their status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := dterrors.GetKind(err)
	status := statusFor(kind)

	resp := dto.ErrorResponse{Error: err.Error(), Code: kind.String()}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		resp.Error = http.StatusText(status)
	}
	resp.Details = businessDetails(err)
	respondJSON(w, status, resp)
}

func statusFor(kind dterrors.Kind) int {
	switch kind {
	case dterrors.KindValidation:
		return http.StatusBadRequest
	case dterrors.KindPermission:
		return http.StatusForbidden
	case dterrors.KindNotFound:
		return http.StatusNotFound
	case dterrors.KindConflict, dterrors.KindConcurrentModification:
		return http.StatusConflict
	case dterrors.KindCanceled:
		return http.StatusRequestTimeout
	case dterrors.KindDependency, dterrors.KindIO:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func businessDetails(err error) []dto.ErrorDetail {
	var me *dterrors.MultipleBusinessErrors
	if errors.As(err, &me) {
		out := make([]dto.ErrorDetail, len(me.Errors))
		for i, be := range me.Errors {
			out[i] = dto.ErrorDetail{StatusCode: be.Code, Message: be.Message}
		}
		return out
	}
	var be *dterrors.BusinessError
	if errors.As(err, &be) {
		return []dto.ErrorDetail{{StatusCode: be.Code, Message: be.Message}}
	}
	return nil
}
