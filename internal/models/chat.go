package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы модерации сообщения.
const (
	MessageReportStatusNone     = "none"
	MessageReportStatusReported = "reported"
	MessageReportStatusReviewed = "reviewed"
)

// Message описывает личное сообщение между двумя пользователями.
// Беседа не хранится отдельной сущностью: пара (sender_id, receiver_id)
// в любом порядке образует один и тот же диалог.
type Message struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	SenderID     uuid.UUID  `db:"sender_id" json:"sender_id"`
	ReceiverID   uuid.UUID  `db:"receiver_id" json:"receiver_id"`
	Body         string     `db:"body" json:"body"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
	ReportStatus string     `db:"report_status" json:"report_status"`

	// ClientTag — корреляционный тег клиента, echo-поле протокола доставки.
	// В базе не хранится: сервер возвращает его отправителю в messageSent,
	// чтобы клиент сопоставил ответ со своей provisional-копией.
	ClientTag string `db:"-" json:"client_tag,omitempty"`
}
