package client

import (
	"errors"
	"testing"
	"time"
)

const selfID = int64(42)

func historyMessage(sender int64, body string, at time.Time) Message {
	direction := DirectionIncoming
	if sender == selfID {
		direction = DirectionOutgoing
	}
	return Message{
		SenderID:  sender,
		Body:      body,
		CreatedAt: at,
		Origin:    OriginHistory,
		Direction: direction,
		Kind:      KindMessage,
	}
}

func selfIdentity() *Identity {
	return &Identity{UserID: selfID, Username: "alice", Role: "customer"}
}

func TestSetHistoryPreservesServerOrder(t *testing.T) {
	tl := NewTimeline(selfID)
	base := time.Now()
	tl.SetHistory([]Message{
		historyMessage(7, "hello", base),
		historyMessage(selfID, "hi there", base.Add(time.Second)),
		historyMessage(7, "how can I help?", base.Add(2*time.Second)),
	})

	got := tl.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"hello", "hi there", "how can I help?"} {
		if got[i].Body != want {
			t.Errorf("entry %d = %q, want %q", i, got[i].Body, want)
		}
	}
	if got[1].Direction != DirectionOutgoing {
		t.Errorf("own history entry direction = %q, want outgoing", got[1].Direction)
	}
}

func TestSetHistoryDropsPreviousNotices(t *testing.T) {
	tl := NewTimeline(selfID)
	tl.AppendNotice("connected to support chat")
	tl.SetHistory([]Message{historyMessage(7, "hello", time.Now())})

	if tl.Len() != 1 {
		t.Fatalf("len = %d, want 1 after history replace", tl.Len())
	}
	if tl.Messages()[0].Kind != KindMessage {
		t.Errorf("notice survived the history replace")
	}
}

func TestEchoSettlesOptimisticEntryByLocalID(t *testing.T) {
	tl := NewTimeline(selfID)
	tl.SetHistory([]Message{historyMessage(7, "hello", time.Now().Add(-time.Minute))})

	sent := tl.AppendLocal("01HLOCAL", selfIdentity(), "hi")
	if tl.Len() != 2 {
		t.Fatalf("len = %d after optimistic append, want 2", tl.Len())
	}

	tl.ApplyLive(MessageEvent{
		ID:        "01HSERVER",
		LocalID:   sent.LocalID,
		SenderID:  selfID,
		Body:      "hi",
		CreatedAt: time.Now(),
	})

	got := tl.Messages()
	if len(got) != 2 {
		t.Fatalf("len = %d after echo, want 2 (no duplicate)", len(got))
	}
	final := got[1]
	if final.ID != "01HSERVER" {
		t.Errorf("settled entry ID = %q, want server id", final.ID)
	}
	if final.Origin != OriginLive || final.Direction != DirectionOutgoing {
		t.Errorf("settled entry origin/direction = %q/%q", final.Origin, final.Direction)
	}
	if final.LocalID != sent.LocalID {
		t.Errorf("settled entry lost its local id")
	}
}

func TestEchoSettlesByBodyWithinWindow(t *testing.T) {
	tl := NewTimeline(selfID)
	tl.AppendLocal("01HLOCAL", selfIdentity(), "hi")

	// An echo without a local id (reconnect race) still settles the entry
	// when sender and body agree inside the window.
	tl.ApplyLive(MessageEvent{
		ID:        "01HSERVER",
		SenderID:  selfID,
		Body:      "hi",
		CreatedAt: time.Now().Add(2 * time.Second),
	})
	if tl.Len() != 1 {
		t.Fatalf("len = %d, want 1 (window match)", tl.Len())
	}

	// Outside the window the same shape is a distinct message.
	tl.ApplyLive(MessageEvent{
		ID:        "01HLATER",
		SenderID:  selfID,
		Body:      "hi",
		CreatedAt: time.Now().Add(time.Minute),
	})
	if tl.Len() != 2 {
		t.Fatalf("len = %d, want 2 (no match outside window)", tl.Len())
	}
}

func TestPeerMessageNeverMatchesOptimistic(t *testing.T) {
	tl := NewTimeline(selfID)
	tl.AppendLocal("01HLOCAL", selfIdentity(), "hi")

	tl.ApplyLive(MessageEvent{
		ID:        "01HPEER",
		SenderID:  7,
		Body:      "hi",
		CreatedAt: time.Now(),
	})

	if tl.Len() != 2 {
		t.Fatalf("len = %d, want 2 (peer message inserted, not merged)", tl.Len())
	}
}

func TestApplyLiveInsertsInTimestampOrder(t *testing.T) {
	tl := NewTimeline(selfID)
	base := time.Now()
	tl.ApplyLive(MessageEvent{ID: "b", SenderID: 7, Body: "second", CreatedAt: base.Add(time.Second)})
	tl.ApplyLive(MessageEvent{ID: "a", SenderID: 7, Body: "first", CreatedAt: base})
	tl.ApplyLive(MessageEvent{ID: "c", SenderID: 7, Body: "also second", CreatedAt: base.Add(time.Second)})

	got := tl.Messages()
	want := []string{"first", "second", "also second"}
	for i := range want {
		if got[i].Body != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i].Body, want[i])
		}
	}
}

func TestResolveSendFlagsFailureAndRetainsEntry(t *testing.T) {
	tl := NewTimeline(selfID)
	sent := tl.AppendLocal("", selfIdentity(), "hi")

	tl.ResolveSend(sent.LocalID, errors.New("message could not be stored"))

	got := tl.Messages()
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (failed entry retained)", len(got))
	}
	if !got[0].Failed {
		t.Errorf("entry not flagged failed")
	}

	// A later echo must not settle a failed entry.
	tl.ApplyLive(MessageEvent{ID: "x", LocalID: sent.LocalID, SenderID: selfID, Body: "hi", CreatedAt: time.Now()})
	if tl.Len() != 2 {
		t.Errorf("len = %d, want 2 (failed entry stays distinct)", tl.Len())
	}
}

func TestResolveSendSuccessIsNoOp(t *testing.T) {
	tl := NewTimeline(selfID)
	sent := tl.AppendLocal("", selfIdentity(), "hi")
	tl.ResolveSend(sent.LocalID, nil)
	if got := tl.Messages(); got[0].Failed {
		t.Errorf("successful ack flagged the entry")
	}
}

func TestNoticesInterleaveWithoutDisturbingMessages(t *testing.T) {
	tl := NewTimeline(selfID)
	tl.SetHistory([]Message{historyMessage(7, "hello", time.Now().Add(-time.Hour))})
	tl.AppendNotice("disconnected")
	tl.AppendLocal("", selfIdentity(), "are you there?")

	got := tl.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[1].Kind != KindNotice {
		t.Errorf("notice not interleaved at its moment")
	}
	if got[2].Body != "are you there?" {
		t.Errorf("message after notice = %q", got[2].Body)
	}
}
