package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/youneskazemi/chatcord/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return NewService(st, "test-secret", time.Hour)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := testService(t)

	reg, err := svc.Register(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Token == "" || reg.User.Username != "alice" {
		t.Fatalf("Register result = %+v", reg)
	}

	login, err := svc.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Error("login resolved a different user")
	}
}

func TestRegisterAssignsPaletteColor(t *testing.T) {
	svc := testService(t)
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		reg, err := svc.Register(context.Background(), name, "hunter2")
		if err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
		found := false
		for _, c := range userColors {
			if reg.User.Color == c {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("user %d color %q not in palette", i, reg.User.Color)
		}
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Register(context.Background(), "alice", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "other")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate Register = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Register(context.Background(), "x", "hunter2"); !errors.Is(err, ErrValidation) {
		t.Errorf("short username = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(context.Background(), "has spaces", "hunter2"); !errors.Is(err, ErrValidation) {
		t.Errorf("username with spaces = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(context.Background(), "alice", "abc"); !errors.Is(err, ErrValidation) {
		t.Errorf("short password = %v, want ErrValidation", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Register(context.Background(), "alice", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserFromToken(t *testing.T) {
	svc := testService(t)
	reg, err := svc.Register(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.UserFromToken(context.Background(), reg.Token)
	if err != nil {
		t.Fatalf("UserFromToken: %v", err)
	}
	if user.ID != reg.User.ID || user.Username != "alice" {
		t.Errorf("token resolved %+v, want the registered user", user)
	}

	if _, err := svc.UserFromToken(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token = %v, want ErrInvalidToken", err)
	}

	other := NewService(nil, "different-secret", time.Hour)
	forged, err := other.generateToken(reg.User)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	if _, err := svc.UserFromToken(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign-signed token = %v, want ErrInvalidToken", err)
	}
}
