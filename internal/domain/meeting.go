package domain

import "time"

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusOngoing Status = "ongoing"
	StatusEnded   Status = "ended"
)

// Meeting — долговечная запись о звонке; живёт дольше любых соединений.
// Roster хранится в порядке первого join.
type Meeting struct {
	ID        string
	CreatorID int64
	Roster    []int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Meeting) InRoster(userID int64) bool {
	for _, id := range m.Roster {
		if id == userID {
			return true
		}
	}
	return false
}
