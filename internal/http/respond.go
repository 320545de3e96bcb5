package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in JSON error bodies.
const (
	CodeBadRequest = "bad_request"
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func respondValidationError(w http.ResponseWriter, err error) {
	respondError(w, http.StatusUnprocessableEntity, CodeValidation, err.Error())
}

func respondNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, CodeNotFound, "record not found")
}

func respondInternalError(w http.ResponseWriter) {
	respondError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
