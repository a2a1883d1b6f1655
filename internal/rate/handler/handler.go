package handler

import (
	"encoding/json"
	"net/http"

	"extsync/internal/rate"
)

type Handler struct {
	service *rate.Service
}

func NewRateHandler(service *rate.Service) *Handler {
	return &Handler{service: service}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorMsg})
}

func writeValidationError(w http.ResponseWriter, fields rate.FieldErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: "validation failed", Fields: fields})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
