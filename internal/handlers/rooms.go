package handlers

import "net/http"

// RoomEntry is one room in the merchant inbox listing.
type RoomEntry struct {
	RoomID       string `json:"room_id"`
	LastActiveAt int64  `json:"last_active_at,omitempty"`
	MessageCount int64  `json:"message_count,omitempty"`
}

// Rooms handles GET /rooms for the merchant inbox.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "rooms unavailable")
		return
	}

	entries := make([]RoomEntry, 0, len(rooms))
	for _, room := range rooms {
		entries = append(entries, RoomEntry{
			RoomID:       room.ID,
			LastActiveAt: room.LastActiveAt,
			MessageCount: room.MessageCount,
		})
	}
	h.OK(w, entries)
}
