package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keanu3244/shop-chat/internal/api/middleware"
	"github.com/keanu3244/shop-chat/internal/models"
)

type stubStore struct {
	history  map[string][]models.Message
	rooms    []models.Room
	storeErr error
}

func (s *stubStore) Close() {}

func (s *stubStore) Ping(_ context.Context) error { return nil }

func (s *stubStore) AppendMessage(_ context.Context, _ *models.Message) error { return nil }

func (s *stubStore) RoomHistory(_ context.Context, roomID string, _ int) ([]models.Message, error) {
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	return s.history[roomID], nil
}

func (s *stubStore) ListRooms(_ context.Context) ([]models.Room, error) {
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	return s.rooms, nil
}

func (s *stubStore) TouchRoom(_ context.Context, _ string, _ int64, _ int64) error { return nil }

func requestAs(user *models.User, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, user)
		req = req.WithContext(ctx)
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHistoryRequiresRoomID(t *testing.T) {
	h := NewHandler(&stubStore{}, nil)
	rec := httptest.NewRecorder()
	h.History(rec, requestAs(&models.User{ID: 42, Role: models.RoleCustomer}, "/messages/history"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Status != "error" {
		t.Errorf("envelope status = %q, want error", env.Status)
	}
}

func TestHistoryForbidsForeignRoomForCustomers(t *testing.T) {
	h := NewHandler(&stubStore{}, nil)
	rec := httptest.NewRecorder()
	h.History(rec, requestAs(&models.User{ID: 42, Role: models.RoleCustomer}, "/messages/history?roomId=room_7"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHistoryServesOwnRoom(t *testing.T) {
	st := &stubStore{history: map[string][]models.Message{
		"room_42": {
			{SenderID: 7, SenderUsername: "shop", SenderRole: "merchant", Body: "hello", CreatedAt: 1000},
			{SenderID: 42, SenderUsername: "alice", SenderRole: "customer", Body: "hi", CreatedAt: 2000},
		},
	}}
	h := NewHandler(st, nil)
	rec := httptest.NewRecorder()
	h.History(rec, requestAs(&models.User{ID: 42, Role: models.RoleCustomer}, "/messages/history?roomId=room_42"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var env struct {
		Status string         `json:"status"`
		Data   []HistoryEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "ok" || len(env.Data) != 2 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Data[0].Message != "hello" || env.Data[1].Message != "hi" {
		t.Errorf("entries out of order: %+v", env.Data)
	}
	if env.Data[1].SenderRole != "customer" {
		t.Errorf("entry role = %q", env.Data[1].SenderRole)
	}
}

func TestHistoryLetsMerchantsReadAnyRoom(t *testing.T) {
	st := &stubStore{history: map[string][]models.Message{
		"room_42": {{SenderID: 42, SenderUsername: "alice", SenderRole: "customer", Body: "hi", CreatedAt: 1000}},
	}}
	h := NewHandler(st, nil)
	rec := httptest.NewRecorder()
	h.History(rec, requestAs(&models.User{ID: 1, Role: models.RoleMerchant}, "/messages/history?roomId=room_42"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHistoryReportsStoreFailure(t *testing.T) {
	h := NewHandler(&stubStore{storeErr: errors.New("down")}, nil)
	rec := httptest.NewRecorder()
	h.History(rec, requestAs(&models.User{ID: 1, Role: models.RoleMerchant}, "/messages/history?roomId=room_42"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRoomsListsInbox(t *testing.T) {
	st := &stubStore{rooms: []models.Room{
		{ID: "room_42", LastActiveAt: 2000, MessageCount: 3},
		{ID: "room_7", LastActiveAt: 1000, MessageCount: 1},
	}}
	h := NewHandler(st, nil)
	rec := httptest.NewRecorder()
	h.Rooms(rec, requestAs(&models.User{ID: 1, Role: models.RoleMerchant}, "/rooms"))

	var env struct {
		Status string      `json:"status"`
		Data   []RoomEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "ok" || len(env.Data) != 2 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Data[0].RoomID != "room_42" || env.Data[0].MessageCount != 3 {
		t.Errorf("first entry = %+v", env.Data[0])
	}
}
