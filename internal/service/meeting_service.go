package service

import (
	"context"
	"fmt"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
)

// MeetingStore — контракт хранилища митингов.
// Реализации: internal/memory и internal/postgres.
type MeetingStore interface {
	Create(ctx context.Context, creatorID int64) (*domain.Meeting, error)
	Get(ctx context.Context, meetingID string) (*domain.Meeting, error)
	RecordJoin(ctx context.Context, meetingID string, userID int64) (*domain.Meeting, error)
	RecordLeave(ctx context.Context, meetingID string, userID int64) (*domain.Meeting, error)
	End(ctx context.Context, meetingID string, requestingUserID int64) (*domain.Meeting, error)
}

type MeetingService struct {
	store MeetingStore
}

func NewMeetingService(store MeetingStore) *MeetingService {
	return &MeetingService{store: store}
}

// CreateMeeting создаёт митинг со свежим публичным идентификатором,
// статусом waiting и создателем в ростере.
func (s *MeetingService) CreateMeeting(ctx context.Context, creatorID int64) (*domain.Meeting, error) {
	m, err := s.store.Create(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("store.Create: %w", err)
	}
	return m, nil
}

func (s *MeetingService) GetMeeting(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	return s.store.Get(ctx, meetingID)
}
