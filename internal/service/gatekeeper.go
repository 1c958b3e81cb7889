package service

import (
	"context"
	"log/slog"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/room"
)

// ConnCloser форсирует разрыв живого соединения; реализует ws-хаб.
type ConnCloser interface {
	CloseConn(connID string)
}

// Gatekeeper — слой политики над room.Table и MeetingStore:
// права, вместимость, запрет на join в завершённый митинг. Все составные
// операции по одной комнате выполняются в её критической секции, чтобы
// таблица и хранилище не расходились.
type Gatekeeper struct {
	store  MeetingStore
	rooms  *room.Table
	closer ConnCloser
}

func NewGatekeeper(store MeetingStore, rooms *room.Table, closer ConnCloser) *Gatekeeper {
	return &Gatekeeper{store: store, rooms: rooms, closer: closer}
}

// AttemptJoin допускает соединение в комнату митинга. Проверка вместимости,
// запись членства и RecordJoin — один атомарный шаг: если RecordJoin
// вернул ошибку (митинг завершён/исчез), членство не фиксируется.
// Возвращает список соединений, которым нужно разослать peer-joined,
// в порядке их join.
func (g *Gatekeeper) AttemptJoin(ctx context.Context, meetingID string, userID int64, connID string) ([]string, error) {
	// быстрый отказ до захвата комнаты; авторитетная проверка — в commit
	m, err := g.store.Get(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.StatusEnded {
		return nil, domain.ErrMeetingEnded
	}

	notify, err := g.rooms.Join(meetingID, connID, func() error {
		_, err := g.store.RecordJoin(ctx, meetingID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("join admitted", "meeting", meetingID, "user", userID, "conn", connID)
	return notify, nil
}

// AttemptLeave выводит соединение из комнаты и best-effort обновляет
// хранилище. Ошибка второго шага логируется, не возвращается: уход на
// уровне соединения уже случился и не отменяется.
func (g *Gatekeeper) AttemptLeave(ctx context.Context, meetingID string, userID int64, connID string) int {
	return g.rooms.Leave(meetingID, connID, func(remaining int) {
		if _, err := g.store.RecordLeave(ctx, meetingID, userID); err != nil {
			slog.Warn("record leave failed", "meeting", meetingID, "user", userID, "err", err)
		}
	})
}

// AttemptEnd завершает митинг (только создатель) и принудительно закрывает
// все живые соединения комнаты, чтобы пиры узнали о завершении сразу,
// а не по таймауту. Закрытие — fire-and-forget per connection.
func (g *Gatekeeper) AttemptEnd(ctx context.Context, meetingID string, requestingUserID int64) (*domain.Meeting, error) {
	var (
		m       *domain.Meeting
		evicted []string
		err     error
	)
	g.rooms.Do(meetingID, func(members []string) {
		m, err = g.store.End(ctx, meetingID, requestingUserID)
		if err == nil {
			evicted = members
		}
	})
	if err != nil {
		return nil, err
	}

	for _, connID := range evicted {
		g.closer.CloseConn(connID)
	}
	slog.Info("meeting ended", "meeting", meetingID, "by", requestingUserID, "evicted", len(evicted))

	return m, nil
}
