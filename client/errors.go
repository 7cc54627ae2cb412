package client

import "errors"

// Error taxonomy for the messaging subsystem. Nothing here is fatal to the
// host application: every failure surfaces as a timeline notice and/or a
// flagged message, never a silent drop.
var (
	// ErrHistoryUnavailable means the history fetch failed; the timeline
	// degrades to empty and the live channel still attaches.
	ErrHistoryUnavailable = errors.New("message history unavailable")

	// ErrNotConnected means a send was rejected locally because the live
	// channel is not in the connected state.
	ErrNotConnected = errors.New("not connected")

	// ErrUnauthenticated means the server demanded re-authentication; sends
	// are blocked until the identity is refreshed.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSendRejected means the server nacked a specific message. The
	// optimistic entry is flagged, never requeued automatically.
	ErrSendRejected = errors.New("send rejected")

	// ErrDisconnected means the transport closed under the channel. The
	// channel instance is finished; reconnecting is the caller's decision.
	ErrDisconnected = errors.New("disconnected")

	// ErrNoIdentity means no one is logged in; the subsystem must not open
	// a live channel.
	ErrNoIdentity = errors.New("no authenticated identity")
)
