package client

import (
	"sync"
	"testing"
	"time"
)

type typingCall struct {
	room   string
	typing bool
	at     time.Time
}

// typingRecorder stands in for the live channel under the notifier.
type typingRecorder struct {
	mu    sync.Mutex
	calls []typingCall
	err   error
}

func (r *typingRecorder) Typing(roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, typingCall{room: roomID, typing: true, at: time.Now()})
	return nil
}

func (r *typingRecorder) StopTyping(roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, typingCall{room: roomID, typing: false, at: time.Now()})
	return nil
}

func (r *typingRecorder) snapshot() []typingCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]typingCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func TestNotifierCollapsesBurstIntoOneSignalPair(t *testing.T) {
	rec := &typingRecorder{}
	n := NewNotifier(rec, 80*time.Millisecond)

	// A burst of keystrokes inside the quiet window.
	n.Notify("room_42")
	time.Sleep(20 * time.Millisecond)
	n.Notify("room_42")
	time.Sleep(20 * time.Millisecond)
	last := time.Now()
	n.Notify("room_42")

	// Wait out the quiet period plus slack for the timer goroutine.
	time.Sleep(250 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want exactly one typing and one stop", len(calls))
	}
	if !calls[0].typing || calls[1].typing {
		t.Fatalf("call order = %+v, want typing then stop", calls)
	}
	// The stop must trail the last keystroke by at least the quiet period.
	if gap := calls[1].at.Sub(last); gap < 80*time.Millisecond {
		t.Errorf("stop fired %v after last keystroke, want >= 80ms", gap)
	}
}

func TestNotifierStartsNewBurstAfterQuiet(t *testing.T) {
	rec := &typingRecorder{}
	n := NewNotifier(rec, 40*time.Millisecond)

	n.Notify("room_42")
	time.Sleep(150 * time.Millisecond)
	n.Notify("room_42")
	time.Sleep(150 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 4 {
		t.Fatalf("calls = %d, want two full bursts", len(calls))
	}
}

func TestNotifierRoomSwitchEndsOldBurstFirst(t *testing.T) {
	rec := &typingRecorder{}
	n := NewNotifier(rec, 200*time.Millisecond)

	n.Notify("room_1")
	n.Notify("room_2")
	n.Cancel()

	calls := rec.snapshot()
	want := []typingCall{
		{room: "room_1", typing: true},
		{room: "room_1", typing: false},
		{room: "room_2", typing: true},
		{room: "room_2", typing: false},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %d, want %d: %+v", len(calls), len(want), calls)
	}
	for i := range want {
		if calls[i].room != want[i].room || calls[i].typing != want[i].typing {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestNotifierCancelStopsPendingTimer(t *testing.T) {
	rec := &typingRecorder{}
	n := NewNotifier(rec, 50*time.Millisecond)

	n.Notify("room_42")
	n.Cancel()
	before := len(rec.snapshot())

	// The cancelled timer must not fire a second stop.
	time.Sleep(150 * time.Millisecond)
	if after := len(rec.snapshot()); after != before {
		t.Errorf("calls grew from %d to %d after Cancel", before, after)
	}
	if before != 2 {
		t.Errorf("calls = %d, want typing+stop from Cancel", before)
	}
}

func TestNotifierCancelWithoutBurstIsQuiet(t *testing.T) {
	rec := &typingRecorder{}
	n := NewNotifier(rec, 50*time.Millisecond)
	n.Cancel()
	if got := len(rec.snapshot()); got != 0 {
		t.Errorf("calls = %d, want none", got)
	}
}

func TestNotifierSendFailureLeavesBurstInactive(t *testing.T) {
	rec := &typingRecorder{err: ErrNotConnected}
	n := NewNotifier(rec, 50*time.Millisecond)

	n.Notify("room_42")
	time.Sleep(120 * time.Millisecond)

	// No burst started, so no trailing stop either.
	if got := len(rec.snapshot()); got != 0 {
		t.Errorf("calls = %d, want none on a dead channel", got)
	}
}
