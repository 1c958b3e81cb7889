package ws

import (
	"sync"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
)

type Conn interface {
	Send(env Envelope) error
	Close() error
	ID() string
}

// Hub — живые соединения по conn id. Отправка best-effort: пропавший
// адресат — ожидаемая гонка, не ошибка приложения.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]Conn)}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) Send(connID string, env Envelope) error {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()

	if !ok {
		return domain.ErrStaleDestination
	}
	return c.Send(env)
}

// CloseConn форсирует разрыв; используется Gatekeeper-ом при end().
// Отсутствующее соединение — no-op.
func (h *Hub) CloseConn(connID string) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()

	if ok {
		_ = c.Close()
	}
}
