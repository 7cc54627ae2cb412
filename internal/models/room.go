package models

import "fmt"

// Room is a support conversation channel between one customer and the
// merchant side. Its ID is derived from the customer's user ID.
type Room struct {
	ID           string `json:"room_id"`
	CustomerID   int64  `json:"customer_id,omitempty"`
	LastActiveAt int64  `json:"last_active_at,omitempty"` // Unix ms
	MessageCount int64  `json:"message_count,omitempty"`
}

// RoomIDFor returns the canonical room ID for a customer.
func RoomIDFor(customerID int64) string {
	return fmt.Sprintf("room_%d", customerID)
}
