// Package wire defines the JSON frames exchanged over the live chat
// transport. Both the server hub and the client channel speak this
// envelope; neither side depends on the other's internals.
package wire

import "encoding/json"

// Frame types sent by the client.
const (
	TypeSendMessage = "sendMessage"
	TypeTyping      = "typing"
	TypeStopTyping  = "stopTyping"
	TypeJoinRoom    = "joinRoom"
	TypeLeaveRoom   = "leaveRoom"
)

// Frame types sent by the server.
const (
	TypeConnected      = "connected"
	TypeReceiveMessage = "receiveMessage"
	TypeAck            = "ack"
	TypeReauthenticate = "reauthenticate"
	TypeError          = "error"
)

// Frame is the envelope for every message on the socket. Data holds the
// type-specific payload and is decoded by the receiver.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SendMessage asks the server to relay a chat message. LocalID is a
// client-generated ULID echoed back on the broadcast and on the ack so the
// sender can reconcile its optimistic entry without timing heuristics.
type SendMessage struct {
	AckID   string `json:"ack_id"`
	LocalID string `json:"local_id"`
	RoomID  string `json:"room_id,omitempty"`
	Message string `json:"message"`
}

// Typing signals that the sender started or is still composing.
type Typing struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username,omitempty"`
}

// StopTyping signals that the sender stopped composing.
type StopTyping struct {
	RoomID string `json:"room_id"`
}

// JoinRoom and LeaveRoom scope a merchant connection to a room.
type JoinRoom struct {
	RoomID string `json:"room_id"`
}

type LeaveRoom struct {
	RoomID string `json:"room_id"`
}

// Connected acknowledges a successful connect at the protocol level.
type Connected struct {
	RoomID  string `json:"room_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ReceiveMessage is a chat message pushed to room members. LocalID is only
// set on the echo back to the original sender's connection.
type ReceiveMessage struct {
	ID             string `json:"id"`
	LocalID        string `json:"local_id,omitempty"`
	RoomID         string `json:"room_id"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderRole     string `json:"sender_role"`
	Message        string `json:"message"`
	CreatedAt      int64  `json:"created_at"` // Unix ms
}

// Ack is the server's reply to a SendMessage.
type Ack struct {
	AckID   string `json:"ack_id"`
	Status  string `json:"status"` // "ok" or "error"
	Message string `json:"message,omitempty"`
}

// Reauthenticate tells the client its credentials are no longer accepted.
type Reauthenticate struct {
	Message string `json:"message"`
}

// Error reports a non-fatal protocol error.
type Error struct {
	Message string `json:"message"`
}

// Encode wraps a payload in a Frame of the given type.
func Encode(frameType string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: frameType, Data: data}, nil
}

// Decode unmarshals the frame payload into dst.
func Decode(f Frame, dst any) error {
	return json.Unmarshal(f.Data, dst)
}
