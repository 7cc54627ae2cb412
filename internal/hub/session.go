package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/keanu3244/shop-chat/internal/models"
	"github.com/keanu3244/shop-chat/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 64
	maxFrameBytes  = 1 << 16
)

// session is a single websocket connection bound to an authenticated user
// and (at most) one room at a time.
type session struct {
	hub    *Hub
	conn   *websocket.Conn
	user   models.User
	send   chan wire.Frame
	logger zerolog.Logger

	// roomID is the current binding; customers never change it, merchants
	// rebind via joinRoom/leaveRoom. Writes and the registry reads in
	// attach/detach are serialized under hub.mu.
	roomID string

	// expired flips when the token lifetime runs out; sends are nacked
	// from then on but the socket stays up until the peer closes it.
	expired atomic.Bool

	// sendMu serializes pushes against the close of the send channel, so a
	// room broadcast or the reauth timer racing a disconnect can never send
	// on a closed channel.
	sendMu sync.Mutex
	closed bool

	reauthTimer *time.Timer
}

func (s *session) readLoop() {
	defer s.close()

	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Debug().Err(err).Msg("read loop closing")
			return
		}

		var frame wire.Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.pushError("malformed frame")
			continue
		}
		s.hub.dispatch(s, frame)
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Debug().Err(err).Msg("write frame")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues a frame, dropping the oldest pending one when the peer is not
// keeping up so a slow reader cannot stall the room. Frames pushed after
// close are dropped.
func (s *session) push(frame wire.Frame) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- frame:
	default:
		select {
		case <-s.send:
		default:
		}
		// The freed slot cannot be taken by another pusher while sendMu
		// is held, so this send never blocks.
		s.send <- frame
	}
}

func (s *session) pushError(message string) {
	frame, err := wire.Encode(wire.TypeError, wire.Error{Message: message})
	if err != nil {
		return
	}
	s.push(frame)
}

// armReauth schedules the reauthenticate signal for the token's remaining
// lifetime. After it fires the session stops accepting sends.
func (s *session) armReauth(until time.Time) {
	remaining := time.Until(until)
	if remaining <= 0 {
		s.markExpired()
		return
	}
	s.reauthTimer = time.AfterFunc(remaining, s.markExpired)
}

func (s *session) markExpired() {
	if s.expired.Swap(true) {
		return
	}
	frame, err := wire.Encode(wire.TypeReauthenticate, wire.Reauthenticate{
		Message: "session credentials expired, please log in again",
	})
	if err == nil {
		s.push(frame)
	}
	s.logger.Info().Msg("session token expired")
}

// dead reports whether close has run. The registry checks it under hub.mu
// before re-attaching a rebinding session.
func (s *session) dead() bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.closed
}

func (s *session) close() {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return
	}
	s.closed = true
	close(s.send)
	s.sendMu.Unlock()

	if s.reauthTimer != nil {
		s.reauthTimer.Stop()
	}
	s.hub.detach(s)
	_ = s.conn.Close()
}
