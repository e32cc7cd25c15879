package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// События протокола доставки. Контракт общий для сервера и клиента:
// каждое сообщение канала — JSON {"type": <событие>, "data": <payload>}.
const (
	// клиент -> сервер
	EventJoin        = "join"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"

	// сервер -> клиент
	EventMessageSent  = "messageSent" // ack отправителю, после фиксации в БД
	EventNewMessage   = "newMessage"  // доставка второму участнику, best-effort
	EventMessageError = "messageError"
)

// Envelope — конверт события на проводе.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinPayload регистрирует канал за пользователем.
// user_id обязан совпадать с субъектом access токена рукопожатия.
type JoinPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// SendMessagePayload — запрос на сохранение и доставку сообщения.
// ClientTag генерируется клиентом и возвращается в messageSent /
// messageError, чтобы клиент сопоставил ответ с provisional-копией.
type SendMessagePayload struct {
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Body       string    `json:"body"`
	ClientTag  string    `json:"client_tag,omitempty"`
}

// TypingPayload — сигнал "печатает". Пересылается как есть, не хранится.
type TypingPayload struct {
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

// MessageErrorPayload — отказ отправителю: валидация или персистентность.
type MessageErrorPayload struct {
	Reason    string `json:"reason"`
	ClientTag string `json:"client_tag,omitempty"`
}
