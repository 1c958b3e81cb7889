package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/registry"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/room"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 512 KB хватает на любой SDP с запасом
const maxMessageSize = 512 << 10

type TokenVerifier interface {
	VerifyAccessToken(token string) (int64, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	reg      *registry.Registry
	rooms    *room.Table
	gate     *service.Gatekeeper
	relay    *Relay
	verifier TokenVerifier

	pingEvery time.Duration
}

func NewServer(hub *Hub, reg *registry.Registry, rooms *room.Table, gate *service.Gatekeeper, relay *Relay, verifier TokenVerifier) *Server {
	return &Server{
		hub:      hub,
		reg:      reg,
		rooms:    rooms,
		gate:     gate,
		relay:    relay,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...
// Комнату соединение выбирает уже внутри сессии конвертом join-room.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	uid, err := s.verifier.VerifyAccessToken(token)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	if err := s.reg.Register(connID, uid); err != nil {
		// нарушение инварианта реестра; соединение не обслуживаем
		slog.Error("connection register failed", "conn", connID, "err", err)
		_ = conn.Close()
		return
	}

	c := newWsConn(conn, connID)
	s.hub.Add(c)
	slog.Info("ws connected", "conn", connID, "user", uid)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c, uid)

	// разрыв транспорта == неявный leave-room
	s.leaveCurrentRoom(r.Context(), c, uid)
	s.hub.Remove(connID)
	s.reg.Unregister(connID)
	_ = c.Close()
	slog.Info("ws disconnected", "conn", connID, "user", uid)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, uid int64) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch {
		case env.Type == TypeJoinRoom:
			s.handleJoin(ctx, c, uid, env.RoomID)
		case env.Type == TypeLeaveRoom:
			s.leaveCurrentRoom(ctx, c, uid)
		case IsNegotiation(env.Type):
			s.relay.Forward(c.ID(), env)
		default:
			// незнакомые типы игнорируем
		}
	}
}

func (s *Server) handleJoin(ctx context.Context, c *wsConn, uid int64, roomID string) {
	if roomID == "" {
		return
	}
	if cur, _ := s.reg.RoomOf(c.ID()); cur != "" {
		// одно соединение — максимум одна комната
		return
	}

	notify, err := s.gate.AttemptJoin(ctx, roomID, uid, c.ID())
	if err != nil {
		if t, ok := rejectType(err); ok {
			_ = c.Send(Envelope{Type: t, RoomID: roomID})
		} else {
			slog.Error("join failed", "room", roomID, "conn", c.ID(), "err", err)
		}
		return
	}

	// joiner-у — снапшот комнаты, остальным — peer-joined в порядке join
	members := make([]Member, 0, len(notify)+1)
	for _, id := range append(append([]string{}, notify...), c.ID()) {
		memberUID, _ := s.reg.UserOf(id)
		members = append(members, Member{
			ConnID: id,
			UserID: strconv.FormatInt(memberUID, 10),
		})
	}
	_ = c.Send(Envelope{
		Type:   TypeRoomState,
		RoomID: roomID,
		Payload: mustRaw(RoomStatePayload{
			RoomID:  roomID,
			SelfID:  c.ID(),
			Members: members,
		}),
	})
	s.relay.NotifyJoined(roomID, c.ID(), uid, notify)
}

// leaveCurrentRoom выводит соединение из его комнаты (если оно в ней) и
// уведомляет оставшихся. Используется и для явного leave-room, и при
// разрыве транспорта.
func (s *Server) leaveCurrentRoom(ctx context.Context, c *wsConn, uid int64) {
	roomID, _ := s.reg.RoomOf(c.ID())
	if roomID == "" {
		return
	}

	s.gate.AttemptLeave(ctx, roomID, uid, c.ID())
	s.relay.NotifyLeft(roomID, c.ID(), uid, s.rooms.Members(roomID))
}

func rejectType(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrMeetingNotFound):
		return TypeNotFound, true
	case errors.Is(err, domain.ErrMeetingEnded):
		return TypeMeetingEnded, true
	case errors.Is(err, domain.ErrRoomFull):
		return TypeRoomFull, true
	default:
		return "", false
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- wsConn ---

type wsConn struct {
	conn      *websocket.Conn
	id        string
	sendMu    chan struct{} // сериализует писателей
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(env Envelope) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(env)
}

// Close безопасен при гонке двух закрытий: eviction из Gatekeeper-а может
// совпасть с разрывом со стороны клиента.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) ID() string { return c.id }
