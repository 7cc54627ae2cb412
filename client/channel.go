package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/keanu3244/shop-chat/wire"
)

// Status is the connection state of a Channel instance.
type Status int32

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusUnauthenticated
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusDisconnected:
		return "disconnected"
	}
	return "unknown"
}

const eventBufferSize = 32

// Channel owns exactly one live transport connection bound to an identity
// and an optional room. It emits a typed event stream in receipt order and
// performs no retry of its own: once disconnected, the instance is done and
// reconnecting is an explicit caller decision.
type Channel struct {
	conn   *websocket.Conn
	events chan Event
	logger zerolog.Logger
	roomID string

	status atomic.Int32

	writeMu sync.Mutex

	// pending maps ack correlation ids to the local ids of in-flight
	// sends. Whatever is left on teardown is flushed as failed.
	ackMu   sync.Mutex
	pending map[string]string

	closing   chan struct{}
	closeOnce sync.Once
}

// Dial opens a live channel for the identity, scoped to roomID when
// non-empty. The returned channel is in the connecting state; it reports
// connected only on the protocol-level acknowledgment, via ConnectedEvent.
func Dial(ctx context.Context, baseURL string, identity *Identity, roomID string, logger zerolog.Logger) (*Channel, error) {
	if identity == nil {
		return nil, ErrNoIdentity
	}

	wsURL, err := liveURL(baseURL, identity.Token, roomID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	conn.SetReadLimit(1 << 16)

	c := &Channel{
		conn:    conn,
		events:  make(chan Event, eventBufferSize),
		roomID:  roomID,
		pending: make(map[string]string),
		closing: make(chan struct{}),
		logger: logger.With().
			Str("component", "live-channel").
			Str("room", roomID).
			Logger(),
	}

	go c.readLoop()
	return c, nil
}

// liveURL converts the API base URL into the websocket endpoint.
func liveURL(baseURL, token, roomID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	q := u.Query()
	q.Set("token", token)
	if roomID != "" {
		q.Set("roomId", roomID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Events returns the channel's event stream. It is closed after the final
// DisconnectedEvent.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Status returns the current connection status.
func (c *Channel) Status() Status {
	return Status(c.status.Load())
}

// RoomID returns the room binding this channel was opened with.
func (c *Channel) RoomID() string {
	return c.roomID
}

// Send relays a chat message and returns the optimistic entry's local id.
// It fails locally, without touching the transport, unless the channel is
// connected. The ack arrives later as an AckEvent carrying the local id.
func (c *Channel) Send(roomID, body string) (string, error) {
	switch c.Status() {
	case StatusConnected:
	case StatusUnauthenticated:
		return "", ErrUnauthenticated
	default:
		return "", ErrNotConnected
	}

	localID := ulid.Make().String()
	ackID := uuid.NewString()

	c.ackMu.Lock()
	c.pending[ackID] = localID
	c.ackMu.Unlock()

	err := c.writeFrame(wire.TypeSendMessage, wire.SendMessage{
		AckID:   ackID,
		LocalID: localID,
		RoomID:  roomID,
		Message: body,
	})
	if err != nil {
		c.ackMu.Lock()
		delete(c.pending, ackID)
		c.ackMu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return localID, nil
}

// Typing broadcasts a composing signal. Harmless to call in any state; the
// debouncing lives in the Notifier, not here.
func (c *Channel) Typing(roomID string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	return c.writeFrame(wire.TypeTyping, wire.Typing{RoomID: roomID})
}

// StopTyping broadcasts the end of composition.
func (c *Channel) StopTyping(roomID string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	return c.writeFrame(wire.TypeStopTyping, wire.StopTyping{RoomID: roomID})
}

// JoinRoom rebinds a merchant channel to another room on the server side.
func (c *Channel) JoinRoom(roomID string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	return c.writeFrame(wire.TypeJoinRoom, wire.JoinRoom{RoomID: roomID})
}

// LeaveRoom detaches a merchant channel from its room.
func (c *Channel) LeaveRoom(roomID string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	return c.writeFrame(wire.TypeLeaveRoom, wire.LeaveRoom{RoomID: roomID})
}

// Close tears the channel down. It is safe to call from any state and on
// every exit path; the event stream ends with DisconnectedEvent and is then
// closed.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *Channel) writeFrame(frameType string, payload any) error {
	frame, err := wire.Encode(frameType, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(frame)
}

// readLoop is the sole producer of events and the sole closer of the event
// stream; every exit path runs the teardown below it.
func (c *Channel) readLoop() {
	var closeErr error
	defer func() {
		c.teardown(closeErr)
	}()

	for {
		var frame wire.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			closeErr = err
			return
		}
		c.handleFrame(frame)
	}
}

func (c *Channel) handleFrame(frame wire.Frame) {
	switch frame.Type {
	case wire.TypeConnected:
		var data wire.Connected
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.status.Store(int32(StatusConnected))
		c.logger.Debug().Msg("channel connected")
		c.emit(ConnectedEvent{RoomID: data.RoomID})

	case wire.TypeReceiveMessage:
		var data wire.ReceiveMessage
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.emit(MessageEvent{
			ID:             data.ID,
			LocalID:        data.LocalID,
			RoomID:         data.RoomID,
			SenderID:       data.SenderID,
			SenderUsername: data.SenderUsername,
			SenderRole:     data.SenderRole,
			Body:           data.Message,
			CreatedAt:      time.UnixMilli(data.CreatedAt),
		})

	case wire.TypeAck:
		var data wire.Ack
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.ackMu.Lock()
		localID, ok := c.pending[data.AckID]
		delete(c.pending, data.AckID)
		c.ackMu.Unlock()
		if !ok {
			return
		}
		var ackErr error
		if data.Status != "ok" {
			ackErr = fmt.Errorf("%w: %s", ErrSendRejected, data.Message)
		}
		c.emit(AckEvent{LocalID: localID, Err: ackErr})

	case wire.TypeTyping:
		var data wire.Typing
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.emit(TypingEvent{RoomID: data.RoomID, Username: data.Username, Active: true})

	case wire.TypeStopTyping:
		var data wire.StopTyping
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.emit(TypingEvent{RoomID: data.RoomID, Active: false})

	case wire.TypeReauthenticate:
		var data wire.Reauthenticate
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		// Sends stop here; the socket stays referenced until Close.
		c.status.Store(int32(StatusUnauthenticated))
		c.logger.Info().Msg("server demanded re-authentication")
		c.emit(ReauthenticateEvent{Message: data.Message})

	case wire.TypeError:
		var data wire.Error
		if err := wire.Decode(frame, &data); err != nil {
			return
		}
		c.emit(ErrorEvent{Message: data.Message})

	default:
		c.logger.Debug().Str("type", frame.Type).Msg("unknown frame ignored")
	}
}

// teardown moves the channel to its terminal state, fails whatever sends
// were still in flight, emits the final event and closes the stream.
func (c *Channel) teardown(cause error) {
	c.status.Store(int32(StatusDisconnected))

	c.ackMu.Lock()
	orphaned := make([]string, 0, len(c.pending))
	for _, localID := range c.pending {
		orphaned = append(orphaned, localID)
	}
	c.pending = make(map[string]string)
	c.ackMu.Unlock()

	// Unacknowledged sends must end in a visible flagged state.
	for _, localID := range orphaned {
		c.emit(AckEvent{LocalID: localID, Err: ErrDisconnected})
	}

	c.emit(DisconnectedEvent{Err: cause})
	close(c.events)
	_ = c.conn.Close()
	c.logger.Debug().Msg("channel torn down")
}

// emit delivers an event unless teardown was requested and the consumer is
// already gone.
func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.closing:
		// Consumer detached during Close; drop rather than block.
		select {
		case c.events <- ev:
		default:
		}
	}
}
