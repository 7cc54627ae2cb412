package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Directory is the merchant-side inbox: the known support rooms and the
// single active conversation. Room switches are serialized — the previous
// binding is fully torn down before the next one opens — so rapid
// switching can never leak a channel or let room B's events land on room
// A's timeline.
type Directory struct {
	cfg    Config
	sess   *Session
	api    *API
	logger zerolog.Logger

	mu     sync.Mutex
	rooms  []Room
	active *Conversation
}

// NewDirectory creates a directory for a merchant session.
func NewDirectory(cfg Config, sess *Session, api *API) *Directory {
	return &Directory{
		cfg:    cfg,
		sess:   sess,
		api:    api,
		logger: cfg.Logger.With().Str("component", "room-directory").Logger(),
	}
}

// Refresh reloads the room list. A failure logs and leaves the directory
// unchanged — the inbox keeps showing what it last knew.
func (d *Directory) Refresh(ctx context.Context) error {
	rooms, err := d.api.Rooms(ctx)
	if err != nil {
		d.logger.Warn().Err(err).Msg("room list refresh failed")
		return err
	}

	d.mu.Lock()
	d.rooms = rooms
	d.mu.Unlock()
	return nil
}

// Rooms returns a copy of the known room list.
func (d *Directory) Rooms() []Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}

// ActiveRoomID returns the active room, or "" when none is selected. It is
// always either empty or a member of the directory's room set.
func (d *Directory) ActiveRoomID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return ""
	}
	return d.active.RoomID()
}

// Active returns the active conversation, or nil.
func (d *Directory) Active() *Conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// SetActiveRoom switches the inbox to roomID: it tears down the previous
// binding (channel closed, typing timer cancelled, event loop drained),
// reloads history for the new room and opens a fresh channel scoped to it.
func (d *Directory) SetActiveRoom(ctx context.Context, roomID string) (*Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.knowsLocked(roomID) {
		return nil, fmt.Errorf("unknown room %q", roomID)
	}
	if d.active != nil && d.active.RoomID() == roomID {
		return d.active, nil
	}

	if d.active != nil {
		d.active.Close()
		d.active = nil
	}

	d.logger.Debug().Str("room", roomID).Msg("activating room")
	d.active = Open(ctx, d.cfg, d.sess, d.api, roomID)
	return d.active, nil
}

// Deactivate closes the active conversation, leaving no room selected.
func (d *Directory) Deactivate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		d.active.Close()
		d.active = nil
	}
}

// Close tears down whatever is active. The directory is not usable after.
func (d *Directory) Close() {
	d.Deactivate()
}

func (d *Directory) knowsLocked(roomID string) bool {
	for _, room := range d.rooms {
		if room.ID == roomID {
			return true
		}
	}
	return false
}
