package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaweTech/authgate/internal/store/core"
)

func TestGetUserByID(t *testing.T) {
	s := New()
	s.Put(core.User{ID: "u1", Email: "u@x.com", Role: "admin", CreatedAt: time.Now()})

	got, err := s.GetUserByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "u@x.com" || got.Role != "admin" {
		t.Fatalf("unexpected user: %+v", got)
	}

	// Mutating the returned value must not affect the stored record.
	got.Role = "superadmin"
	again, _ := s.GetUserByID(context.Background(), "u1")
	if again.Role != "admin" {
		t.Fatal("GetUserByID must return a copy")
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.GetUserByID(context.Background(), "ghost")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
