package registry

import (
	"sync"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
)

type entry struct {
	userID int64
	roomID string
}

// Registry владеет отношением connID -> (userID, roomID).
// Никогда не трогает сеть; его читают room.Table и relay.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*entry)}
}

// Register fails with ErrDuplicateConnection if the id is already live.
// Под корректным транспортом это не случается; дубликат — нарушение инварианта.
func (r *Registry) Register(connID string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; ok {
		return domain.ErrDuplicateConnection
	}
	r.conns[connID] = &entry{userID: userID}
	return nil
}

// Unregister is idempotent: unknown ids are a no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// SetRoom tags the connection with its current room; empty roomID clears the tag.
func (r *Registry) SetRoom(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.conns[connID]; ok {
		e.roomID = roomID
	}
}

func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	return e.roomID, true
}

func (r *Registry) UserOf(connID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return 0, false
	}
	return e.userID, true
}
