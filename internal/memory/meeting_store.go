package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"

	"github.com/google/uuid"
)

// MeetingStore — in-memory вариант хранилища митингов. Контракт тот же,
// что у postgres-версии; используется без DSN в конфиге и в тестах.
type MeetingStore struct {
	mu       sync.RWMutex
	meetings map[string]*domain.Meeting
}

func NewMeetingStore() *MeetingStore {
	return &MeetingStore{meetings: make(map[string]*domain.Meeting)}
}

func clone(m *domain.Meeting) *domain.Meeting {
	out := *m
	out.Roster = make([]int64, len(m.Roster))
	copy(out.Roster, m.Roster)
	return &out
}

func (s *MeetingStore) Create(_ context.Context, creatorID int64) (*domain.Meeting, error) {
	now := time.Now()
	m := &domain.Meeting{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Roster:    []int64{creatorID},
		Status:    domain.StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = m

	return clone(m), nil
}

func (s *MeetingStore) Get(_ context.Context, meetingID string) (*domain.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}
	return clone(m), nil
}

// RecordJoin добавляет пользователя в ростер (повтор — no-op) и переводит
// waiting -> ongoing, как только в ростере двое. Назад не переводит.
func (s *MeetingStore) RecordJoin(_ context.Context, meetingID string, userID int64) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}
	if m.Status == domain.StatusEnded {
		return nil, domain.ErrMeetingEnded
	}

	if !m.InRoster(userID) {
		m.Roster = append(m.Roster, userID)
		m.UpdatedAt = time.Now()
	}
	if len(m.Roster) >= 2 && m.Status == domain.StatusWaiting {
		m.Status = domain.StatusOngoing
		m.UpdatedAt = time.Now()
	}

	return clone(m), nil
}

// RecordLeave убирает пользователя из ростера; пустой митинг считается
// завершённым. Отсутствующий userID — no-op.
func (s *MeetingStore) RecordLeave(_ context.Context, meetingID string, userID int64) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}

	for i, id := range m.Roster {
		if id == userID {
			m.Roster = append(m.Roster[:i], m.Roster[i+1:]...)
			m.UpdatedAt = time.Now()
			break
		}
	}
	if len(m.Roster) == 0 && m.Status != domain.StatusEnded {
		m.Status = domain.StatusEnded
		m.UpdatedAt = time.Now()
	}

	return clone(m), nil
}

// End завершает митинг. Разрешено только создателю; повторный вызов —
// идемпотентный no-op.
func (s *MeetingStore) End(_ context.Context, meetingID string, requestingUserID int64) (*domain.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, domain.ErrMeetingNotFound
	}
	if m.CreatorID != requestingUserID {
		return nil, domain.ErrForbidden
	}
	if m.Status != domain.StatusEnded {
		m.Status = domain.StatusEnded
		m.UpdatedAt = time.Now()
	}

	return clone(m), nil
}
