package client

import "time"

// Origin records which source produced a timeline entry.
type Origin string

const (
	OriginHistory    Origin = "history"
	OriginLive       Origin = "live"
	OriginOptimistic Origin = "optimistic"
)

// Direction is how a message renders relative to the local user.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Kind separates chat messages from session-scoped system notices.
type Kind string

const (
	KindMessage Kind = "message"
	KindNotice  Kind = "system"
)

// Message is one entry in a room's timeline.
//
// ID is the server-assigned ULID and is empty on optimistic entries until
// the echo settles them. LocalID is the client-generated ULID used as the
// reconciliation key for the local user's own sends.
type Message struct {
	ID             string
	LocalID        string
	SenderID       int64
	SenderUsername string
	SenderRole     string
	Body           string
	CreatedAt      time.Time
	Origin         Origin
	Direction      Direction
	Kind           Kind

	// Failed marks an optimistic entry whose send was nacked or whose
	// channel died before the ack arrived. Failed entries are retained.
	Failed bool
}
