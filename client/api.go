package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// API is the request/response client for the chat endpoints. The live
// channel does not go through it; only history and the room list do.
type API struct {
	http *resty.Client
	sess *Session
}

// NewAPI creates an API client rooted at baseURL. The session's token is
// attached to every request at send time, so a re-login takes effect
// without rebuilding the client.
func NewAPI(baseURL string, sess *Session) *API {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if identity := sess.Identity(); identity != nil {
			req.SetHeader("Authorization", "Bearer "+identity.Token)
		}
		return nil
	})

	return &API{http: httpClient, sess: sess}
}

type historyEntry struct {
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderRole     string `json:"sender_role"`
	Message        string `json:"message"`
	CreatedAt      int64  `json:"created_at"`
}

type historyResponse struct {
	Status  string         `json:"status"`
	Data    []historyEntry `json:"data"`
	Message string         `json:"message"`
}

// History fetches the persisted message log for a room, oldest first, in
// the internal message shape with origin=history. Any transport, status or
// decode failure maps to ErrHistoryUnavailable; the call is idempotent and
// safe to replay on room switches.
func (a *API) History(ctx context.Context, roomID string) ([]Message, error) {
	var body historyResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetQueryParam("roomId", roomID).
		SetResult(&body).
		Get("/messages/history")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	if resp.IsError() || body.Status != "ok" {
		return nil, fmt.Errorf("%w: status %d", ErrHistoryUnavailable, resp.StatusCode())
	}

	selfID := int64(0)
	if identity := a.sess.Identity(); identity != nil {
		selfID = identity.UserID
	}

	messages := make([]Message, 0, len(body.Data))
	for _, entry := range body.Data {
		direction := DirectionIncoming
		if entry.SenderID == selfID {
			direction = DirectionOutgoing
		}
		messages = append(messages, Message{
			SenderID:       entry.SenderID,
			SenderUsername: entry.SenderUsername,
			SenderRole:     entry.SenderRole,
			Body:           entry.Message,
			CreatedAt:      time.UnixMilli(entry.CreatedAt),
			Origin:         OriginHistory,
			Direction:      direction,
			Kind:           KindMessage,
		})
	}
	return messages, nil
}

// Room is one entry in the merchant inbox.
type Room struct {
	ID           string
	LastActiveAt time.Time
	MessageCount int64
}

type roomEntry struct {
	RoomID       string `json:"room_id"`
	LastActiveAt int64  `json:"last_active_at"`
	MessageCount int64  `json:"message_count"`
}

type roomsResponse struct {
	Status  string      `json:"status"`
	Data    []roomEntry `json:"data"`
	Message string      `json:"message"`
}

// Rooms lists the support rooms visible to a merchant.
func (a *API) Rooms(ctx context.Context) ([]Room, error) {
	var body roomsResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/rooms")
	if err != nil {
		return nil, err
	}
	if resp.IsError() || body.Status != "ok" {
		return nil, fmt.Errorf("room list failed: status %d", resp.StatusCode())
	}

	rooms := make([]Room, 0, len(body.Data))
	for _, entry := range body.Data {
		rooms = append(rooms, Room{
			ID:           entry.RoomID,
			LastActiveAt: time.UnixMilli(entry.LastActiveAt),
			MessageCount: entry.MessageCount,
		})
	}
	return rooms, nil
}
