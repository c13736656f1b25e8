// Package httputil holds JSON response helpers shared by the HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "bubble/pkg/domain-errors"
)

// Validatable is implemented by request bodies that validate and normalize
// themselves after decoding.
type Validatable interface {
	Validate() error
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes body as the JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a domain error to its HTTP status. Internal failures never
// leak their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, name := statusFor(code)
	resp := errorResponse{Error: name}
	if status < http.StatusInternalServerError {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, resp)
}

func statusFor(code dErrors.Code) (int, string) {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest, "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest, "validation_error"
	case dErrors.CodeNotFound:
		return http.StatusNotFound, "not_found"
	case dErrors.CodeConflict:
		return http.StatusConflict, "conflict"
	case dErrors.CodeLocked:
		return http.StatusLocked, "locked"
	case dErrors.CodeForbidden:
		return http.StatusForbidden, "forbidden"
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable, "unavailable"
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// DecodeAndPrepare decodes the JSON body into T and runs its Validate method
// when present. On failure the error response is already written and ok is false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "invalid request",
				"request_id", requestID,
				"error", err,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
