package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/keanu3244/shop-chat/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store store.MessageStore
	cache *store.RedisStore // optional
}

// NewHandler creates a new Handler with the given stores. cache may be nil.
func NewHandler(st store.MessageStore, cache *store.RedisStore) *Handler {
	return &Handler{store: st, cache: cache}
}

// Envelope is the response shape the front-end expects on every endpoint.
type Envelope struct {
	Status  string `json:"status"` // "ok" or "error"
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK sends a successful envelope.
func (h *Handler) OK(w http.ResponseWriter, data any) {
	h.JSON(w, http.StatusOK, Envelope{Status: "ok", Data: data})
}

// Error sends an error envelope with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, Envelope{Status: "error", Message: message})
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
