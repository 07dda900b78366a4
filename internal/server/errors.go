package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/services/validation"
)

// maxBodyBytes caps request bodies. Node payloads carry meeting notes and
// transcripts, so the cap is generous.
const maxBodyBytes = 4 << 20

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged and replaced by a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal server error"
	} else if status == http.StatusBadGateway {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("completion provider failed")
		msg = "AI provider failed to respond; your message was saved, please retry"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads the request body, validates it against schema and decodes it into dst.
func decodeBody(r *http.Request, v *validation.PayloadValidator, schema validation.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperrors.Validation("could not read request body")
	}
	if len(body) > maxBodyBytes {
		return apperrors.Validation("request body too large")
	}
	if err := v.Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Validation("request body does not match the expected shape")
	}
	return nil
}
