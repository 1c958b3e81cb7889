package postgres

import (
	"context"
	"errors"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MeetingRepository — durable-вариант хранилища митингов (service.MeetingStore).
// Переходы статуса защищены от гонок блокировкой строки митинга (FOR UPDATE):
// параллельные RecordJoin/RecordLeave/End по одному митингу будут ждать.
type MeetingRepository struct {
	db *pgxpool.Pool
}

func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Create(ctx context.Context, creatorID int64) (*domain.Meeting, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m := &domain.Meeting{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Status:    domain.StatusWaiting,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO meetings (id, creator_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		m.ID, m.CreatorID, m.Status).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO meeting_participants (meeting_id, user_id)
		VALUES ($1, $2)`, m.ID, creatorID); err != nil {
		return nil, err
	}
	m.Roster = []int64{creatorID}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MeetingRepository) Get(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	m, err := r.get(ctx, r.db, meetingID, false)
	if err != nil {
		return nil, err
	}
	return m, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *MeetingRepository) get(ctx context.Context, q querier, meetingID string, forUpdate bool) (*domain.Meeting, error) {
	query := `SELECT id, creator_id, status, created_at, updated_at FROM meetings WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var m domain.Meeting
	err := q.QueryRow(ctx, query, meetingID).
		Scan(&m.ID, &m.CreatorID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT user_id FROM meeting_participants
		WHERE meeting_id=$1 ORDER BY joined_at ASC`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		m.Roster = append(m.Roster, uid)
	}
	return &m, rows.Err()
}

func (r *MeetingRepository) RecordJoin(ctx context.Context, meetingID string, userID int64) (*domain.Meeting, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := r.get(ctx, tx, meetingID, true)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.StatusEnded {
		return nil, domain.ErrMeetingEnded
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO meeting_participants (meeting_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, meetingID, userID); err != nil {
		return nil, err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_participants WHERE meeting_id=$1`,
		meetingID).Scan(&count); err != nil {
		return nil, err
	}
	if count >= 2 && m.Status == domain.StatusWaiting {
		if err := r.setStatus(ctx, tx, meetingID, domain.StatusOngoing); err != nil {
			return nil, err
		}
	}

	m, err = r.get(ctx, tx, meetingID, false)
	if err != nil {
		return nil, err
	}
	return m, tx.Commit(ctx)
}

func (r *MeetingRepository) RecordLeave(ctx context.Context, meetingID string, userID int64) (*domain.Meeting, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := r.get(ctx, tx, meetingID, true)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM meeting_participants WHERE meeting_id=$1 AND user_id=$2`,
		meetingID, userID); err != nil {
		return nil, err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_participants WHERE meeting_id=$1`,
		meetingID).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 && m.Status != domain.StatusEnded {
		if err := r.setStatus(ctx, tx, meetingID, domain.StatusEnded); err != nil {
			return nil, err
		}
	}

	m, err = r.get(ctx, tx, meetingID, false)
	if err != nil {
		return nil, err
	}
	return m, tx.Commit(ctx)
}

func (r *MeetingRepository) End(ctx context.Context, meetingID string, requestingUserID int64) (*domain.Meeting, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := r.get(ctx, tx, meetingID, true)
	if err != nil {
		return nil, err
	}
	if m.CreatorID != requestingUserID {
		return nil, domain.ErrForbidden
	}
	if m.Status != domain.StatusEnded {
		if err := r.setStatus(ctx, tx, meetingID, domain.StatusEnded); err != nil {
			return nil, err
		}
		m.Status = domain.StatusEnded
	}

	return m, tx.Commit(ctx)
}

func (r *MeetingRepository) setStatus(ctx context.Context, tx pgx.Tx, meetingID string, st domain.Status) error {
	_, err := tx.Exec(ctx,
		`UPDATE meetings SET status=$2, updated_at=now() WHERE id=$1`,
		meetingID, st)
	return err
}
