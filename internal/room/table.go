package room

import (
	"sync"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/registry"
)

const DefaultCapacity = 10

// Table — живое, connection-level членство комнат.
// Каждая комната сериализует свои мутации собственным мьютексом; операции
// по разным комнатам идут параллельно. Комната без участников удаляется.
type Table struct {
	reg      *registry.Registry
	capacity int

	mu    sync.Mutex
	rooms map[string]*state
}

type state struct {
	mu   sync.Mutex
	gone bool
	// conn ids в порядке join
	members []string
}

func NewTable(reg *registry.Registry, capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		reg:      reg,
		capacity: capacity,
		rooms:    make(map[string]*state),
	}
}

func (t *Table) Capacity() int { return t.capacity }

// lockState возвращает состояние комнаты с уже взятым per-room локом.
// t.mu никогда не держится одновременно с state.mu, поэтому удаление
// пустой комнаты (release) не может застрять.
func (t *Table) lockState(roomID string, create bool) *state {
	for {
		t.mu.Lock()
		rs, ok := t.rooms[roomID]
		if !ok {
			if !create {
				t.mu.Unlock()
				return nil
			}
			rs = &state{}
			t.rooms[roomID] = rs
		}
		t.mu.Unlock()

		rs.mu.Lock()
		if rs.gone {
			// комнату удалили между поиском и захватом; пробуем заново
			rs.mu.Unlock()
			continue
		}
		return rs
	}
}

// release снимает per-room лок и удаляет комнату, если она опустела.
func (t *Table) release(roomID string, rs *state) {
	if len(rs.members) == 0 {
		rs.gone = true
		t.mu.Lock()
		if t.rooms[roomID] == rs {
			delete(t.rooms, roomID)
		}
		t.mu.Unlock()
	}
	rs.mu.Unlock()
}

// Join admits connID into the room and returns the other members to notify,
// in their join order.
//
// commit выполняется под локом комнаты после проверки вместимости и до
// фиксации членства: если он вернул ошибку, членство не записывается.
// Так членство в комнате и запись в хранилище митингов выглядят как один
// атомарный шаг для всех наблюдателей.
func (t *Table) Join(roomID, connID string, commit func() error) ([]string, error) {
	rs := t.lockState(roomID, true)
	defer t.release(roomID, rs)

	for _, id := range rs.members {
		if id == connID {
			// повторный join того же соединения — no-op
			return nil, nil
		}
	}
	if len(rs.members) >= t.capacity {
		return nil, domain.ErrRoomFull
	}
	if commit != nil {
		if err := commit(); err != nil {
			return nil, err
		}
	}

	notify := make([]string, len(rs.members))
	copy(notify, rs.members)
	rs.members = append(rs.members, connID)
	t.reg.SetRoom(connID, roomID)

	return notify, nil
}

// Leave evicts connID and returns the remaining member count. Идемпотентен:
// уход из комнаты, где соединения нет, ничего не меняет.
// then (если задан) выполняется под локом комнаты после удаления — туда
// Gatekeeper кладёт best-effort обновление хранилища митингов.
func (t *Table) Leave(roomID, connID string, then func(remaining int)) int {
	rs := t.lockState(roomID, false)
	if rs == nil {
		if then != nil {
			then(0)
		}
		return 0
	}
	defer t.release(roomID, rs)

	for i, id := range rs.members {
		if id == connID {
			rs.members = append(rs.members[:i], rs.members[i+1:]...)
			t.reg.SetRoom(connID, "")
			break
		}
	}
	remaining := len(rs.members)
	if then != nil {
		then(remaining)
	}
	return remaining
}

// Members returns a snapshot of the member set in join order.
func (t *Table) Members(roomID string) []string {
	rs := t.lockState(roomID, false)
	if rs == nil {
		return nil
	}
	defer t.release(roomID, rs)

	out := make([]string, len(rs.members))
	copy(out, rs.members)
	return out
}

// Do запускает fn внутри критической секции комнаты; members — снапшот
// текущего состава в порядке join. Нужен операциям, которые должны быть
// упорядочены относительно join/leave (например end).
func (t *Table) Do(roomID string, fn func(members []string)) {
	rs := t.lockState(roomID, true)
	defer t.release(roomID, rs)

	snapshot := make([]string, len(rs.members))
	copy(snapshot, rs.members)
	fn(snapshot)
}
