package client

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultDedupWindow bounds the sender+body fallback match between an
// optimistic entry and its live echo when no local id is available.
const DefaultDedupWindow = 5 * time.Second

// Timeline is the append-only, ordered, deduplicated message sequence for
// one room. It is a pure reducer over three inputs — the history snapshot,
// live events and local sends — and is owned by a single goroutine: the
// conversation's event loop. It does no locking of its own.
type Timeline struct {
	selfID      int64
	entries     []Message
	dedupWindow time.Duration
}

// NewTimeline creates an empty timeline for a user.
func NewTimeline(selfID int64) *Timeline {
	return &Timeline{selfID: selfID, dedupWindow: DefaultDedupWindow}
}

// SetHistory replaces the timeline wholesale with a history snapshot, as
// happens when a room is (re)activated. Notices from the previous view do
// not survive; they were session-scoped commentary on a dead binding.
func (t *Timeline) SetHistory(history []Message) {
	t.entries = make([]Message, len(history))
	copy(t.entries, history)
}

// AppendLocal adds an optimistic outgoing entry for a just-sent message and
// returns it. The caller threads the local id through the send so the ack
// and the echo can find the entry again.
func (t *Timeline) AppendLocal(localID string, identity *Identity, body string) Message {
	if localID == "" {
		localID = ulid.Make().String()
	}
	msg := Message{
		LocalID:        localID,
		SenderID:       identity.UserID,
		SenderUsername: identity.Username,
		SenderRole:     identity.Role,
		Body:           body,
		CreatedAt:      time.Now(),
		Origin:         OriginOptimistic,
		Direction:      DirectionOutgoing,
		Kind:           KindMessage,
	}
	t.entries = append(t.entries, msg)
	return msg
}

// ApplyLive merges an inbound live message. The sender's own echo settles
// the matching optimistic entry in place — matched by local id when the
// server echoed one, else by sender+body inside the dedup window (a timing
// heuristic kept only for reconnect races; see ledger) — so one logical
// message never renders twice. Anything else is inserted in timestamp
// order, ties going after existing entries.
func (t *Timeline) ApplyLive(ev MessageEvent) {
	direction := DirectionIncoming
	if ev.SenderID == t.selfID {
		direction = DirectionOutgoing
	}
	msg := Message{
		ID:             ev.ID,
		LocalID:        ev.LocalID,
		SenderID:       ev.SenderID,
		SenderUsername: ev.SenderUsername,
		SenderRole:     ev.SenderRole,
		Body:           ev.Body,
		CreatedAt:      ev.CreatedAt,
		Origin:         OriginLive,
		Direction:      direction,
		Kind:           KindMessage,
	}

	if idx := t.matchOptimistic(msg); idx >= 0 {
		msg.LocalID = t.entries[idx].LocalID
		t.entries[idx] = msg
		return
	}

	t.insertOrdered(msg)
}

// matchOptimistic finds the optimistic entry a live echo settles, or -1.
func (t *Timeline) matchOptimistic(msg Message) int {
	if msg.SenderID != t.selfID {
		return -1
	}
	for i, entry := range t.entries {
		if entry.Origin != OriginOptimistic || entry.Failed {
			continue
		}
		if msg.LocalID != "" {
			if entry.LocalID == msg.LocalID {
				return i
			}
			continue
		}
		if entry.Body == msg.Body && absDuration(msg.CreatedAt.Sub(entry.CreatedAt)) <= t.dedupWindow {
			return i
		}
	}
	return -1
}

// insertOrdered keeps the sequence strictly ordered by CreatedAt with ties
// broken by arrival order.
func (t *Timeline) insertOrdered(msg Message) {
	i := len(t.entries)
	for i > 0 && t.entries[i-1].CreatedAt.After(msg.CreatedAt) {
		i--
	}
	t.entries = append(t.entries, Message{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = msg
}

// ResolveSend applies a send acknowledgment to the optimistic entry with
// the given local id. A failure flags the entry — it is retained, never
// silently dropped. A success is a no-op here; the live echo settles it.
func (t *Timeline) ResolveSend(localID string, err error) {
	if err == nil {
		return
	}
	for i := range t.entries {
		if t.entries[i].LocalID == localID && t.entries[i].Origin == OriginOptimistic {
			t.entries[i].Failed = true
			return
		}
	}
}

// AppendNotice interleaves a system notice at the present moment. Notices
// live only in memory; they are never persisted past the session.
func (t *Timeline) AppendNotice(text string) {
	t.entries = append(t.entries, Message{
		Body:      text,
		CreatedAt: time.Now(),
		Origin:    OriginLive,
		Kind:      KindNotice,
	})
}

// Messages returns a copy of the current timeline.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries, notices included.
func (t *Timeline) Len() int {
	return len(t.entries)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
