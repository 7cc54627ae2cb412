package store

import (
	"context"

	"github.com/keanu3244/shop-chat/internal/models"
)

// MessageStore defines the interface for persistent storage of messages and
// rooms. Both PostgresStore and SQLiteStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Message operations
	AppendMessage(ctx context.Context, msg *models.Message) error
	RoomHistory(ctx context.Context, roomID string, limit int) ([]models.Message, error)

	// Room operations
	ListRooms(ctx context.Context) ([]models.Room, error)
	TouchRoom(ctx context.Context, roomID string, customerID int64, at int64) error
}
