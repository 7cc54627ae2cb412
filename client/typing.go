package client

import (
	"sync"
	"time"
)

// DefaultTypingQuiet is how long after the last keystroke the stop-typing
// broadcast fires. The original front-end used one second.
const DefaultTypingQuiet = time.Second

// Notifier rate-limits typing broadcasts on the trailing edge: a burst of
// Notify calls collapses into a single typing broadcast, and one stop
// broadcast goes out once the quiet period elapses with no further call.
// Its timer is the only local timer in the subsystem and must be cancelled
// on room switch or teardown so it cannot fire against a stale room.
type Notifier struct {
	channel typingSender
	quiet   time.Duration

	mu     sync.Mutex
	active bool
	roomID string
	timer  *time.Timer
}

// typingSender is the slice of the live channel the notifier drives.
type typingSender interface {
	Typing(roomID string) error
	StopTyping(roomID string) error
}

// NewNotifier creates a typing notifier bound to a channel. quiet <= 0
// selects DefaultTypingQuiet.
func NewNotifier(channel typingSender, quiet time.Duration) *Notifier {
	if quiet <= 0 {
		quiet = DefaultTypingQuiet
	}
	return &Notifier{channel: channel, quiet: quiet}
}

// Notify records a keystroke in the room. The first call of a burst
// broadcasts typing; every call pushes the trailing stop broadcast back by
// the quiet period.
func (n *Notifier) Notify(roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.active && n.roomID != roomID {
		// Composing moved to another room; end the old burst first.
		n.stopLocked()
	}

	if !n.active {
		if err := n.channel.Typing(roomID); err != nil {
			return
		}
		n.active = true
		n.roomID = roomID
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.quiet, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.stopLocked()
	})
}

// Cancel ends any burst immediately. It is called on room switch and on
// teardown; the stop broadcast is best-effort since the channel may already
// be gone.
func (n *Notifier) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

func (n *Notifier) stopLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if !n.active {
		return
	}
	n.active = false
	_ = n.channel.StopTyping(n.roomID)
	n.roomID = ""
}
