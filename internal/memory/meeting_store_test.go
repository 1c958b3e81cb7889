package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
)

func TestCreate(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, err := s.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" {
		t.Fatal("empty meeting id")
	}
	if m.Status != domain.StatusWaiting {
		t.Fatalf("status=%s, want waiting", m.Status)
	}
	if len(m.Roster) != 1 || m.Roster[0] != 1 {
		t.Fatalf("roster=%v, want [1]", m.Roster)
	}

	m2, err := s.Create(ctx, 1)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if m2.ID == m.ID {
		t.Fatal("meeting ids collide")
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewMeetingStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestJoinTransitionsToOngoing(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, _ := s.Create(ctx, 1)

	// создатель уже в ростере; его повторный join ничего не меняет
	got, err := s.RecordJoin(ctx, m.ID, 1)
	if err != nil {
		t.Fatalf("rejoin creator: %v", err)
	}
	if got.Status != domain.StatusWaiting || len(got.Roster) != 1 {
		t.Fatalf("status=%s roster=%v after idempotent join", got.Status, got.Roster)
	}

	got, err = s.RecordJoin(ctx, m.ID, 2)
	if err != nil {
		t.Fatalf("join second: %v", err)
	}
	if got.Status != domain.StatusOngoing {
		t.Fatalf("status=%s, want ongoing", got.Status)
	}
	if len(got.Roster) != 2 {
		t.Fatalf("roster=%v", got.Roster)
	}

	// ростер идемпотентен по userID
	got, _ = s.RecordJoin(ctx, m.ID, 2)
	if len(got.Roster) != 2 {
		t.Fatalf("repeat join grew roster: %v", got.Roster)
	}
}

func TestLeaveEmptiesAndEnds(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, _ := s.Create(ctx, 1)
	if _, err := s.RecordJoin(ctx, m.ID, 2); err != nil {
		t.Fatalf("join: %v", err)
	}

	got, err := s.RecordLeave(ctx, m.ID, 2)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got.Status != domain.StatusOngoing || len(got.Roster) != 1 {
		t.Fatalf("status=%s roster=%v", got.Status, got.Roster)
	}

	// уход не-участника — no-op
	got, err = s.RecordLeave(ctx, m.ID, 99)
	if err != nil || len(got.Roster) != 1 {
		t.Fatalf("leave of stranger: roster=%v err=%v", got.Roster, err)
	}

	got, err = s.RecordLeave(ctx, m.ID, 1)
	if err != nil {
		t.Fatalf("leave last: %v", err)
	}
	if got.Status != domain.StatusEnded {
		t.Fatalf("empty meeting not ended: %s", got.Status)
	}
}

func TestJoinEndedMeeting(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, _ := s.Create(ctx, 1)
	if _, err := s.End(ctx, m.ID, 1); err != nil {
		t.Fatalf("end: %v", err)
	}

	if _, err := s.RecordJoin(ctx, m.ID, 2); !errors.Is(err, domain.ErrMeetingEnded) {
		t.Fatalf("expected ErrMeetingEnded, got %v", err)
	}
}

func TestEndPermissions(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, _ := s.Create(ctx, 1)

	if _, err := s.End(ctx, m.ID, 2); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	got, _ := s.Get(ctx, m.ID)
	if got.Status != domain.StatusWaiting {
		t.Fatalf("status changed by forbidden end: %s", got.Status)
	}

	got, err := s.End(ctx, m.ID, 1)
	if err != nil || got.Status != domain.StatusEnded {
		t.Fatalf("end by creator: status=%s err=%v", got.Status, err)
	}

	// повторный end — идемпотентный no-op
	got, err = s.End(ctx, m.ID, 1)
	if err != nil || got.Status != domain.StatusEnded {
		t.Fatalf("repeated end: status=%s err=%v", got.Status, err)
	}
}

// Статус движется только вперёд: waiting -> ongoing -> ended.
func TestStatusMonotonic(t *testing.T) {
	s := NewMeetingStore()
	ctx := context.Background()

	m, _ := s.Create(ctx, 1)
	s.RecordJoin(ctx, m.ID, 2)

	// уход второго не возвращает в waiting
	got, _ := s.RecordLeave(ctx, m.ID, 2)
	if got.Status != domain.StatusOngoing {
		t.Fatalf("status went backwards: %s", got.Status)
	}

	// join после ongoing не трогает статус
	got, _ = s.RecordJoin(ctx, m.ID, 3)
	if got.Status != domain.StatusOngoing {
		t.Fatalf("status=%s", got.Status)
	}
}
