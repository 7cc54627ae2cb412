package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/keanu3244/shop-chat/internal/metrics"
	"github.com/keanu3244/shop-chat/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// AppendMessage persists a message and bumps its room's activity row.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}

	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("append").Observe(time.Since(start).Seconds())
	}()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, room_id, sender_id, sender_username, sender_role, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.RoomID, msg.SenderID, msg.SenderUsername, msg.SenderRole, msg.Body, msg.CreatedAt)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE rooms
		SET last_active_at = $2, message_count = message_count + 1
		WHERE id = $1
	`, msg.RoomID, msg.CreatedAt)
	return err
}

// RoomHistory returns the oldest-first message log for a room.
func (s *PostgresStore) RoomHistory(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 200
	}

	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("history").Observe(time.Since(start).Seconds())
	}()

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender_id, sender_username, sender_role, body, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.SenderUsername,
			&msg.SenderRole,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListRooms returns all rooms, most recently active first.
func (s *PostgresStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, last_active_at, message_count
		FROM rooms
		ORDER BY last_active_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.CustomerID, &room.LastActiveAt, &room.MessageCount); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// TouchRoom upserts a room row so it appears in the merchant inbox even
// before the first message is persisted.
func (s *PostgresStore) TouchRoom(ctx context.Context, roomID string, customerID int64, at int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, customer_id, last_active_at, message_count)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (id) DO UPDATE SET last_active_at = EXCLUDED.last_active_at
	`, roomID, customerID, at)
	return err
}
