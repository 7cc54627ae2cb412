package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRemoteTypingTTL caps how long a remote typing indicator stays up
// without a fresh signal. It self-heals the display against a lost
// stop-typing event.
const DefaultRemoteTypingTTL = 5 * time.Second

// Config carries the settings shared by all conversations of one app.
type Config struct {
	// BaseURL is the chat server root, e.g. "http://127.0.0.1:7001".
	BaseURL string

	Logger zerolog.Logger

	// TypingQuiet is the typing debounce quiet period; zero selects
	// DefaultTypingQuiet.
	TypingQuiet time.Duration

	// RemoteTypingTTL bounds the remote typing indicator; zero selects
	// DefaultRemoteTypingTTL.
	RemoteTypingTTL time.Duration
}

// Conversation is one room's live view: the merged timeline, the channel
// feeding it, the typing notifier and the remote-typing indicator. All
// channel events are applied by a single event loop goroutine; the loop
// only ever consumes its own channel instance, so an event from a
// torn-down binding can never mutate a newer conversation.
type Conversation struct {
	roomID   string
	identity *Identity
	cfg      Config
	logger   zerolog.Logger

	channel *Channel
	typing  *Notifier

	mu                sync.Mutex
	timeline          *Timeline
	status            Status
	remoteTypingUser  string
	remoteTypingUntil time.Time

	done chan struct{}
}

// Open builds the conversation view for a room: history first (degrading
// to an empty timeline plus a notice on failure), then the live channel.
// Open never fails hard — every problem is surfaced on the timeline and in
// the connection status, because none of them is fatal to the host app.
//
// Customers are always routed to their own room regardless of roomID;
// merchants must name the room.
func Open(ctx context.Context, cfg Config, sess *Session, api *API, roomID string) *Conversation {
	identity := sess.Identity()

	c := &Conversation{
		roomID:   roomID,
		identity: identity,
		cfg:      cfg,
		status:   StatusConnecting,
		done:     make(chan struct{}),
	}

	if identity == nil {
		// Unauthenticated view: no live channel gets opened.
		c.timeline = NewTimeline(0)
		c.status = StatusUnauthenticated
		c.timeline.AppendNotice("please log in to use chat")
		close(c.done)
		return c
	}

	if identity.IsCustomer() {
		c.roomID = identity.Room()
	}
	c.timeline = NewTimeline(identity.UserID)
	c.logger = cfg.Logger.With().Str("component", "conversation").Str("room", c.roomID).Logger()

	// History must settle (success or failure) before the room counts as
	// ready; a failure is a notice, not a blocker — the channel still
	// attaches.
	history, err := api.History(ctx, c.roomID)
	if err != nil {
		c.logger.Warn().Err(err).Msg("history load failed")
		c.timeline.AppendNotice("failed to load message history")
	} else {
		c.timeline.SetHistory(history)
	}

	channel, err := Dial(ctx, cfg.BaseURL, identity, c.roomID, cfg.Logger)
	if err != nil {
		c.logger.Warn().Err(err).Msg("live channel dial failed")
		c.status = StatusDisconnected
		c.timeline.AppendNotice("connection failed")
		close(c.done)
		return c
	}

	c.channel = channel
	c.typing = NewNotifier(channel, cfg.TypingQuiet)

	go c.loop()
	return c
}

// loop applies the channel's event stream to the timeline in receipt
// order. It exits when the channel closes its stream.
func (c *Conversation) loop() {
	defer close(c.done)

	ttl := c.cfg.RemoteTypingTTL
	if ttl <= 0 {
		ttl = DefaultRemoteTypingTTL
	}

	for ev := range c.channel.Events() {
		c.mu.Lock()
		switch ev := ev.(type) {
		case ConnectedEvent:
			c.status = StatusConnected
			c.timeline.AppendNotice("connected to support chat")

		case MessageEvent:
			// A message for another room must never land on this
			// timeline, whatever the server does.
			if ev.RoomID == c.roomID {
				c.timeline.ApplyLive(ev)
			}

		case AckEvent:
			c.timeline.ResolveSend(ev.LocalID, ev.Err)
			if ev.Err != nil {
				c.timeline.AppendNotice("message could not be delivered")
			}

		case TypingEvent:
			// Indicators for non-active rooms are discarded, never queued.
			if ev.RoomID != c.roomID {
				break
			}
			if ev.Active {
				c.remoteTypingUser = ev.Username
				c.remoteTypingUntil = time.Now().Add(ttl)
			} else {
				c.remoteTypingUntil = time.Time{}
			}

		case ReauthenticateEvent:
			c.status = StatusUnauthenticated
			c.timeline.AppendNotice(ev.Message)

		case ErrorEvent:
			c.timeline.AppendNotice("error - " + ev.Message)

		case DisconnectedEvent:
			c.status = StatusDisconnected
			c.timeline.AppendNotice("disconnected")
		}
		c.mu.Unlock()
	}
}

// RoomID returns the room this conversation is bound to.
func (c *Conversation) RoomID() string {
	return c.roomID
}

// ConnectionStatus returns the current channel status as seen by the view.
func (c *Conversation) ConnectionStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a copy of the merged timeline.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.Messages()
}

// RemoteTyping reports whether the other side is composing, and who.
func (c *Conversation) RemoteTyping() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().After(c.remoteTypingUntil) {
		return false, ""
	}
	return true, c.remoteTypingUser
}

// Send relays a message, appending exactly one optimistic entry on
// success. All failure modes are local and timeline-visible: empty body,
// missing identity, or a channel that is not connected.
func (c *Conversation) Send(body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(body) == "" {
		c.timeline.AppendNotice("message must not be empty")
		return nil
	}
	if c.identity == nil {
		c.timeline.AppendNotice("please log in to use chat")
		return ErrNoIdentity
	}
	if c.channel == nil {
		c.timeline.AppendNotice("not connected, message not sent")
		return ErrNotConnected
	}

	localID, err := c.channel.Send(c.roomID, body)
	if err != nil {
		c.timeline.AppendNotice("not connected, message not sent")
		return err
	}

	c.timeline.AppendLocal(localID, c.identity, body)
	return nil
}

// NotifyTyping records a local keystroke for the debounced typing signal.
func (c *Conversation) NotifyTyping() {
	if c.typing != nil {
		c.typing.Notify(c.roomID)
	}
}

// Close tears the binding down unconditionally: typing timer cancelled,
// channel closed, event loop drained. After Close returns, no handler of
// this conversation will mutate it again; the last rendered view stays
// readable.
func (c *Conversation) Close() {
	if c.typing != nil {
		c.typing.Cancel()
	}
	if c.channel != nil {
		c.channel.Close()
	}
	<-c.done
}
