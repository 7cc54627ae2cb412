package client

import "time"

// Event is a discriminated event emitted by a Channel. Consumers receive
// the full stream in receipt order and switch on the concrete type; they
// never touch transport internals.
type Event interface {
	isEvent()
}

// ConnectedEvent reports the protocol-level connect acknowledgment.
type ConnectedEvent struct {
	RoomID string
}

// MessageEvent carries an inbound chat message.
type MessageEvent struct {
	ID             string
	LocalID        string // set only on the echo of the local user's own send
	RoomID         string
	SenderID       int64
	SenderUsername string
	SenderRole     string
	Body           string
	CreatedAt      time.Time
}

// AckEvent settles a pending send. Err is nil on success, ErrSendRejected
// (wrapped with the server's reason) on a nack, or ErrDisconnected when the
// channel died with the ack outstanding. Delivered exactly once per send.
type AckEvent struct {
	LocalID string
	Err     error
}

// TypingEvent reports a remote participant starting (Active=true) or
// stopping (Active=false) composition in a room.
type TypingEvent struct {
	RoomID   string
	Username string
	Active   bool
}

// ReauthenticateEvent reports the server-issued re-authentication demand.
type ReauthenticateEvent struct {
	Message string
}

// ErrorEvent reports a non-fatal transport or protocol error.
type ErrorEvent struct {
	Message string
}

// DisconnectedEvent is the final event of a channel instance.
type DisconnectedEvent struct {
	Err error
}

func (ConnectedEvent) isEvent()      {}
func (MessageEvent) isEvent()        {}
func (AckEvent) isEvent()            {}
func (TypingEvent) isEvent()         {}
func (ReauthenticateEvent) isEvent() {}
func (ErrorEvent) isEvent()          {}
func (DisconnectedEvent) isEvent()   {}
