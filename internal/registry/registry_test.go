package registry

import (
	"errors"
	"testing"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
)

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("c1", 1); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register("c1", 2)
	if !errors.Is(err, domain.ErrDuplicateConnection) {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}

	// исходная привязка не затёрта
	uid, ok := r.UserOf("c1")
	if !ok || uid != 1 {
		t.Fatalf("user binding changed: uid=%d ok=%v", uid, ok)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Unregister("ghost") // no-op

	if err := r.Register("c1", 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Unregister("c1")
	r.Unregister("c1")

	if _, ok := r.RoomOf("c1"); ok {
		t.Fatal("connection still known after unregister")
	}
}

func TestSetRoom(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("c1", 7); err != nil {
		t.Fatalf("register: %v", err)
	}

	if roomID, ok := r.RoomOf("c1"); !ok || roomID != "" {
		t.Fatalf("fresh connection should have no room, got %q ok=%v", roomID, ok)
	}

	r.SetRoom("c1", "m1")
	if roomID, _ := r.RoomOf("c1"); roomID != "m1" {
		t.Fatalf("room = %q, want m1", roomID)
	}

	r.SetRoom("c1", "")
	if roomID, _ := r.RoomOf("c1"); roomID != "" {
		t.Fatalf("room not cleared: %q", roomID)
	}

	// тег для незарегистрированного соединения — no-op
	r.SetRoom("ghost", "m1")
	if _, ok := r.RoomOf("ghost"); ok {
		t.Fatal("ghost connection appeared in registry")
	}
}
