package ws

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/logger"
	"github.com/ignatzorin/mentorhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mentorhub-backend/internal/service"
)

// ChatGateway связывает канал доставки с хранилищем переписки.
// Для одного отправителя порядок гарантирован: readPump обрабатывает
// события последовательно, messageSent уходит только после фиксации
// записи в БД.
type ChatGateway struct {
	chats    *service.ChatService
	presence *service.PresenceRegistry
	hub      *Hub
}

// NewChatGateway создаёт обработчик событий канала.
func NewChatGateway(chats *service.ChatService, presence *service.PresenceRegistry, hub *Hub) *ChatGateway {
	return &ChatGateway{chats: chats, presence: presence, hub: hub}
}

// HandleSendMessage сохраняет сообщение и рассылает его обоим участникам.
func (g *ChatGateway) HandleSendMessage(ctx context.Context, from uuid.UUID, p SendMessagePayload) {
	message, err := g.chats.Send(ctx, p.SenderID, p.ReceiverID, p.Body, p.ClientTag)
	if err != nil {
		g.broadcast(from, EventMessageError, MessageErrorPayload{
			Reason:    sendFailureReason(err),
			ClientTag: p.ClientTag,
		})
		return
	}

	// Ack отправителю — с его корреляционным тегом.
	g.broadcast(from, EventMessageSent, message)

	// Копия получателю уходит без тега: тег принадлежит отправителю.
	// Если получатель не подключён, доставка молча не происходит —
	// он получит сообщение при следующей загрузке истории.
	receiverCopy := *message
	receiverCopy.ClientTag = ""
	g.broadcast(p.ReceiverID, EventNewMessage, receiverCopy)
}

// HandleTyping пересылает сигнал набора второму участнику как есть.
func (g *ChatGateway) HandleTyping(ctx context.Context, from uuid.UUID, p TypingPayload, active bool) {
	event := EventStopTyping
	if active {
		event = EventTyping
		g.presence.SetTyping(p.SenderID, p.ReceiverID)
	} else {
		g.presence.ClearTyping(p.SenderID, p.ReceiverID)
	}

	g.broadcast(p.ReceiverID, event, p)
}

func (g *ChatGateway) broadcast(userID uuid.UUID, event string, data any) {
	if err := g.hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.Errorf("ws gateway: отправка %s пользователю %s: %v", event, userID, err)
	}
}

// sendFailureReason переводит ошибку сервиса в причину для клиента,
// не раскрывая внутренних деталей персистентности.
func sendFailureReason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperror.ErrCodeValidation, apperror.ErrCodeNotFound, apperror.ErrCodeForbidden:
			return appErr.Message
		}
	}
	return "не удалось отправить сообщение"
}

var _ EventHandler = (*ChatGateway)(nil)
