package handlers

import (
	"net/http"
	"strings"

	"github.com/keanu3244/shop-chat/internal/api/middleware"
	"github.com/keanu3244/shop-chat/internal/metrics"
	"github.com/keanu3244/shop-chat/internal/models"
)

const historyLimit = 200

// HistoryEntry is one message in the history response, field names matching
// what the front-end consumes.
type HistoryEntry struct {
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderRole     string `json:"sender_role"`
	Message        string `json:"message"`
	CreatedAt      int64  `json:"created_at"`
}

// History handles GET /messages/history?roomId=. Customers may only read
// their own room; merchants may read any.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	roomID := strings.TrimSpace(r.URL.Query().Get("roomId"))
	if roomID == "" {
		h.Error(w, http.StatusBadRequest, "roomId is required")
		return
	}
	if user.Role == models.RoleCustomer && roomID != models.RoomIDFor(user.ID) {
		h.Error(w, http.StatusForbidden, "not your room")
		return
	}

	// Serve from the recent-window cache when it has the room.
	if h.cache != nil {
		if cached, err := h.cache.RecentMessages(r.Context(), roomID); err == nil && cached != nil {
			metrics.HistoryFetches.WithLabelValues("cache").Inc()
			h.OK(w, toEntries(cached))
			return
		}
	}

	messages, err := h.store.RoomHistory(r.Context(), roomID, historyLimit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	metrics.HistoryFetches.WithLabelValues("store").Inc()

	if h.cache != nil && len(messages) > 0 {
		// Best-effort warm; the next switch to this room hits the cache.
		_ = h.cache.WarmRoom(r.Context(), roomID, messages)
	}

	h.OK(w, toEntries(messages))
}

func toEntries(messages []models.Message) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, HistoryEntry{
			SenderID:       msg.SenderID,
			SenderUsername: msg.SenderUsername,
			SenderRole:     msg.SenderRole,
			Message:        msg.Body,
			CreatedAt:      msg.CreatedAt,
		})
	}
	return entries
}
