// Package httpjson reúne writeJSON y el mapeo error→status que antes se
// duplicaba en cada handler.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/platform/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode exige JSON válido y rechaza campos desconocidos.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return accesserr.Validation("invalid json: " + err.Error())
	}
	return nil
}

// StatusOf traduce los sentinels de accesserr a códigos HTTP.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, accesserr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, accesserr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, accesserr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accesserr.ErrAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, accesserr.ErrExpired):
		return http.StatusGone
	case errors.Is(err, accesserr.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, accesserr.ErrCodeGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError responde con el status de StatusOf. Los 5xx no exponen la causa.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", map[string]any{"status": status, "error": err.Error()})
		}
		msg = strings.ToLower(http.StatusText(status))
	}
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}
