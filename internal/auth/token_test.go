package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/keanu3244/shop-chat/internal/models"
)

func TestSignParseRoundTrip(t *testing.T) {
	user := models.User{ID: 42, Username: "alice", Role: models.RoleCustomer}
	token, err := Sign("secret", user, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := Parse("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.User(); got != user {
		t.Errorf("claims user = %+v, want %+v", got, user)
	}
}

func TestParseToleratesBearerPrefix(t *testing.T) {
	token, err := Sign("secret", models.User{ID: 1, Username: "shop", Role: models.RoleMerchant}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse("secret", "Bearer "+token); err != nil {
		t.Errorf("parse with prefix: %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _ := Sign("secret", models.User{ID: 42, Username: "alice", Role: models.RoleCustomer}, time.Hour)
	if _, err := Parse("other", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, _ := Sign("secret", models.User{ID: 42, Username: "alice", Role: models.RoleCustomer}, -time.Minute)
	if _, err := Parse("secret", token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	token, _ := Sign("secret", models.User{ID: 42, Username: "alice", Role: "admin"}, time.Hour)
	if _, err := Parse("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
