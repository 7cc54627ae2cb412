package models

// Message is a chat message as persisted by the server.
type Message struct {
	ID             string `json:"id"` // ULID
	RoomID         string `json:"room_id"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderRole     string `json:"sender_role"` // "customer" or "merchant"
	Body           string `json:"message"`
	CreatedAt      int64  `json:"created_at"` // Unix ms
}
