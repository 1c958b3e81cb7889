package ws

import "encoding/json"

// Типы конвертов сигнального протокола. Набор закрытый: всё, что не
// перечислено, игнорируется на входе.
const (
	TypeJoinRoom  = "join-room"  // клиент -> сервер, carries room_id
	TypeLeaveRoom = "leave-room" // клиент -> сервер, carries room_id
	TypeOffer     = "offer"      // negotiation, carries dest + payload
	TypeAnswer    = "answer"     // negotiation, carries dest + payload
	TypeCandidate = "candidate"  // negotiation, carries dest + payload

	TypeRoomState    = "room-state"    // сервер -> joiner: свой conn id + состав комнаты
	TypePeerJoined   = "peer-joined"   // сервер -> остальным участникам
	TypePeerLeft     = "peer-left"     // сервер -> остальным участникам
	TypeRoomFull     = "room-full"     // отказ join; терминален для попытки
	TypeMeetingEnded = "meeting-ended" // отказ join; терминален для попытки
	TypeNotFound     = "not-found"     // отказ join: митинг неизвестен
)

// Envelope — единица сигнального обмена. Payload непрозрачен: сервер
// смотрит только на конверт (type, room_id, dest), содержимое SDP/candidate
// пересылается байт-в-байт.
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Dest    string          `json:"dest,omitempty"` // conn id адресата
	From    string          `json:"from,omitempty"` // conn id отправителя; ставит сервер
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IsNegotiation reports whether t is a peer-to-peer negotiation message.
func IsNegotiation(t string) bool {
	return t == TypeOffer || t == TypeAnswer || t == TypeCandidate
}

type Member struct {
	ConnID string `json:"conn_id"`
	UserID string `json:"user_id"`
}

type RoomStatePayload struct {
	RoomID  string   `json:"room_id"`
	SelfID  string   `json:"self_id"`
	Members []Member `json:"members"` // в порядке join, включая самого joiner-а
}

type PeerEventPayload struct {
	ConnID string `json:"conn_id"`
	UserID string `json:"user_id"`
}

func mustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
