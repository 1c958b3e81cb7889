package ws

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/registry"
)

// Relay — stateless маршрутизатор negotiation-сообщений и уведомлений
// о членстве. Адресата ищет через реестр соединений; payload не трогает.
type Relay struct {
	reg *registry.Registry
	hub *Hub
}

func NewRelay(reg *registry.Registry, hub *Hub) *Relay {
	return &Relay{reg: reg, hub: hub}
}

// Forward доставляет negotiation-сообщение ровно одному адресату.
// Опоздавшее сообщение к уже отключившемуся пиру или к пиру из другой
// комнаты молча дропается: это ожидаемая гонка, наружу не всплывает.
func (r *Relay) Forward(senderConnID string, env Envelope) {
	env.From = senderConnID // отправителя определяет транспорт, не клиент

	if env.Dest == "" || env.Dest == senderConnID {
		slog.Debug("relay drop: bad destination", "from", senderConnID, "dest", env.Dest)
		return
	}

	senderRoom, ok := r.reg.RoomOf(senderConnID)
	if !ok || senderRoom == "" {
		slog.Debug("relay drop: sender not in a room", "from", senderConnID)
		return
	}
	destRoom, ok := r.reg.RoomOf(env.Dest)
	if !ok || destRoom != senderRoom {
		slog.Debug("relay drop: stale destination",
			"from", senderConnID, "dest", env.Dest, "type", env.Type)
		return
	}

	if err := r.hub.Send(env.Dest, env); err != nil {
		if errors.Is(err, domain.ErrStaleDestination) {
			slog.Debug("relay drop: destination gone", "dest", env.Dest)
			return
		}
		slog.Debug("relay send failed", "dest", env.Dest, "err", err)
	}
}

// NotifyJoined рассылает peer-joined всем из notify, в их порядке join.
// Порядок детерминирован ради диагностики на клиенте; корректность от
// него не зависит.
func (r *Relay) NotifyJoined(roomID, connID string, userID int64, notify []string) {
	r.broadcast(notify, Envelope{
		Type:    TypePeerJoined,
		RoomID:  roomID,
		Payload: mustRaw(PeerEventPayload{ConnID: connID, UserID: strconv.FormatInt(userID, 10)}),
	})
}

// NotifyLeft рассылает peer-left оставшимся участникам.
func (r *Relay) NotifyLeft(roomID, connID string, userID int64, notify []string) {
	r.broadcast(notify, Envelope{
		Type:    TypePeerLeft,
		RoomID:  roomID,
		Payload: mustRaw(PeerEventPayload{ConnID: connID, UserID: strconv.FormatInt(userID, 10)}),
	})
}

func (r *Relay) broadcast(targets []string, env Envelope) {
	for _, id := range targets {
		if err := r.hub.Send(id, env); err != nil {
			slog.Debug("notify drop", "dest", id, "type", env.Type)
		}
	}
}
