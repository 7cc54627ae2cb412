package client

import (
	"sync"

	"github.com/keanu3244/shop-chat/internal/models"
)

// Identity is the authenticated user as supplied by the shop backend's
// login flow. It is immutable for the lifetime of a login; logout clears it
// and a new login installs a fresh value.
type Identity struct {
	UserID   int64
	Username string
	Role     string // "customer" or "merchant"
	Token    string
}

// IsCustomer reports whether the identity is a shop customer.
func (id *Identity) IsCustomer() bool { return id.Role == models.RoleCustomer }

// IsMerchant reports whether the identity is on the merchant side.
func (id *Identity) IsMerchant() bool { return id.Role == models.RoleMerchant }

// Room returns the customer's own support room ID.
func (id *Identity) Room() string { return models.RoomIDFor(id.UserID) }

// Session holds the current identity and republishes changes made by the
// external auth collaborator. The messaging subsystem only reads it; with
// no identity present it must show an unauthenticated view and must not
// open a live channel.
type Session struct {
	mu       sync.RWMutex
	identity *Identity
}

// NewSession creates a session, optionally pre-populated with an identity.
func NewSession(identity *Identity) *Session {
	return &Session{identity: identity}
}

// Identity returns the current identity, or nil when logged out.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetIdentity installs a new identity after login.
func (s *Session) SetIdentity(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// Clear removes the identity on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}
