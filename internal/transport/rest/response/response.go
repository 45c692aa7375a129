package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	appCtx "github.com/baechuer/real-time-ressys/services/participation-service/internal/pkg/context"
)

// Envelope is the success envelope:
// {"data": ...}
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is
// {"error":{"code":"...","message":"...","meta":{...},"request_id":"..."}}
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Data(w http.ResponseWriter, status int, payload any) {
	JSON(w, status, Envelope{Data: payload})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	JSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			Meta:      meta,
			RequestID: appCtx.GetRequestID(r.Context()),
		},
	})
}

// Err renders err by its domain code. Unknown errors are logged and reported
// as a bare 500.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if !errors.As(err, &ae) {
		logger.WithCtx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		Fail(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}

	status := StatusOf(ae.Code)
	if status >= 500 {
		logger.WithCtx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
	}
	Fail(w, r, status, string(ae.Code), ae.Message, ae.Meta)
}

func StatusOf(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeIntegration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
