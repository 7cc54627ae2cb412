// Package hub owns the server side of the live chat transport: one
// websocket session per connected user, a room registry, and the
// persist-then-broadcast relay for chat messages and typing signals.
package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/keanu3244/shop-chat/internal/auth"
	"github.com/keanu3244/shop-chat/internal/metrics"
	"github.com/keanu3244/shop-chat/internal/models"
	"github.com/keanu3244/shop-chat/internal/store"
	"github.com/keanu3244/shop-chat/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser front-end is served from a different origin in
	// development; auth happens via the token, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub routes frames between sessions grouped by room.
type Hub struct {
	store  store.MessageStore
	cache  *store.RedisStore // optional
	secret string
	logger zerolog.Logger

	mu    sync.Mutex
	rooms map[string]map[*session]struct{}
}

// New creates a hub backed by the given message store. cache may be nil.
func New(st store.MessageStore, cache *store.RedisStore, secret string, logger zerolog.Logger) *Hub {
	return &Hub{
		store:  st,
		cache:  cache,
		secret: secret,
		logger: logger.With().Str("component", "hub").Logger(),
		rooms:  make(map[string]map[*session]struct{}),
	}
}

// ServeWS upgrades the request and runs a session until the peer goes away.
// Customers are bound to their own room immediately; merchants start
// unbound (or bound to ?roomId=) and rebind with joinRoom/leaveRoom.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.Parse(h.secret, r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user := claims.User()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := &session{
		hub:  h,
		conn: conn,
		user: user,
		send: make(chan wire.Frame, sendBufferSize),
		logger: h.logger.With().
			Int64("user_id", user.ID).
			Str("role", user.Role).
			Logger(),
	}

	switch user.Role {
	case models.RoleCustomer:
		s.roomID = models.RoomIDFor(user.ID)
	case models.RoleMerchant:
		s.roomID = r.URL.Query().Get("roomId")
	}

	h.attach(s)
	s.armReauth(claims.ExpiresAt.Time)

	metrics.ConnectionsActive.Inc()
	s.logger.Info().Str("room", s.roomID).Msg("session connected")

	// Protocol-level connect acknowledgment; the client's state machine
	// moves to connected on this frame, not on the TCP/upgrade success.
	if frame, err := wire.Encode(wire.TypeConnected, wire.Connected{RoomID: s.roomID}); err == nil {
		s.push(frame)
	}

	if user.Role == models.RoleCustomer {
		// Make the room visible in the merchant inbox on first contact.
		if err := h.store.TouchRoom(r.Context(), s.roomID, user.ID, time.Now().UnixMilli()); err != nil {
			s.logger.Warn().Err(err).Msg("touch room")
		}
	}

	go s.writeLoop()
	s.readLoop()

	metrics.ConnectionsActive.Dec()
	s.logger.Info().Msg("session closed")
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachLocked(s)
}

func (h *Hub) attachLocked(s *session) {
	if s.roomID == "" {
		return
	}
	members, ok := h.rooms[s.roomID]
	if !ok {
		members = make(map[*session]struct{})
		h.rooms[s.roomID] = members
	}
	members[s] = struct{}{}
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(s)
}

func (h *Hub) detachLocked(s *session) {
	if members, ok := h.rooms[s.roomID]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, s.roomID)
		}
	}
}

// members returns a snapshot of the sessions in a room.
func (h *Hub) members(roomID string) []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		out = append(out, s)
	}
	return out
}

func (h *Hub) dispatch(s *session, frame wire.Frame) {
	switch frame.Type {
	case wire.TypeSendMessage:
		var req wire.SendMessage
		if err := wire.Decode(frame, &req); err != nil {
			s.pushError("malformed sendMessage")
			return
		}
		h.handleSend(s, req)

	case wire.TypeTyping:
		var req wire.Typing
		if err := wire.Decode(frame, &req); err != nil {
			return
		}
		h.relayTyping(s, req.RoomID, true)

	case wire.TypeStopTyping:
		var req wire.StopTyping
		if err := wire.Decode(frame, &req); err != nil {
			return
		}
		h.relayTyping(s, req.RoomID, false)

	case wire.TypeJoinRoom:
		var req wire.JoinRoom
		if err := wire.Decode(frame, &req); err != nil {
			return
		}
		h.rebind(s, req.RoomID)

	case wire.TypeLeaveRoom:
		h.rebind(s, "")

	default:
		s.pushError("unknown frame type: " + frame.Type)
	}
}

// rebind moves a merchant session to another room. Customers are pinned to
// their own room and cannot rebind. A session whose close raced the rebind
// is detached but never re-attached, so the registry holds no dead entries.
func (h *Hub) rebind(s *session, roomID string) {
	if s.user.Role != models.RoleMerchant {
		s.pushError("only merchants can switch rooms")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(s)
	s.roomID = roomID
	if s.dead() {
		return
	}
	h.attachLocked(s)
	s.logger.Debug().Str("room", roomID).Msg("session rebound")
}

func (h *Hub) handleSend(s *session, req wire.SendMessage) {
	nack := func(reason string) {
		metrics.SendsRejected.WithLabelValues(reason).Inc()
		if frame, err := wire.Encode(wire.TypeAck, wire.Ack{
			AckID:   req.AckID,
			Status:  "error",
			Message: reason,
		}); err == nil {
			s.push(frame)
		}
	}

	if s.expired.Load() {
		nack("reauthenticate")
		return
	}
	if req.Message == "" {
		nack("empty message")
		return
	}

	roomID := s.roomID
	if s.user.Role == models.RoleMerchant && req.RoomID != "" {
		roomID = req.RoomID
	}
	if roomID == "" {
		nack("no room selected")
		return
	}

	msg := &models.Message{
		RoomID:         roomID,
		SenderID:       s.user.ID,
		SenderUsername: s.user.Username,
		SenderRole:     s.user.Role,
		Body:           req.Message,
		CreatedAt:      time.Now().UnixMilli(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.store.AppendMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).Msg("persist message")
		nack("message could not be stored")
		return
	}
	if h.cache != nil {
		if err := h.cache.CacheMessage(ctx, msg); err != nil {
			s.logger.Warn().Err(err).Msg("cache message")
		}
	}

	metrics.MessagesRelayed.WithLabelValues(s.user.Role).Inc()

	// Ack before broadcast so the sender's optimistic entry is settled by
	// the ack and reconciled by the echo, in that order.
	if frame, err := wire.Encode(wire.TypeAck, wire.Ack{AckID: req.AckID, Status: "ok"}); err == nil {
		s.push(frame)
	}

	for _, member := range h.members(roomID) {
		out := wire.ReceiveMessage{
			ID:             msg.ID,
			RoomID:         msg.RoomID,
			SenderID:       msg.SenderID,
			SenderUsername: msg.SenderUsername,
			SenderRole:     msg.SenderRole,
			Message:        msg.Body,
			CreatedAt:      msg.CreatedAt,
		}
		if member == s {
			// Echo carries the sender's local id for exact reconciliation.
			out.LocalID = req.LocalID
		}
		if frame, err := wire.Encode(wire.TypeReceiveMessage, out); err == nil {
			member.push(frame)
		}
	}
}

// relayTyping forwards a typing signal to everyone else in the room. The
// signal is ephemeral: never persisted, never queued for absent members.
func (h *Hub) relayTyping(s *session, roomID string, typing bool) {
	if roomID == "" {
		roomID = s.roomID
	}
	if roomID == "" || s.expired.Load() {
		return
	}

	metrics.TypingEvents.Inc()

	var frame wire.Frame
	var err error
	if typing {
		frame, err = wire.Encode(wire.TypeTyping, wire.Typing{RoomID: roomID, Username: s.user.Username})
	} else {
		frame, err = wire.Encode(wire.TypeStopTyping, wire.StopTyping{RoomID: roomID})
	}
	if err != nil {
		return
	}

	for _, member := range h.members(roomID) {
		if member == s {
			continue
		}
		member.push(frame)
	}
}
