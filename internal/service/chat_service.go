package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mentorhub-backend/internal/validation"
)

// MessageStore описывает зависимости ChatService от хранилища сообщений.
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByPair(ctx context.Context, userA, userB uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int64, error)
}

// IdentityResolver проверяет существование пользователя.
// Ядро сообщений не создаёт и не меняет личности, только ссылается на них.
type IdentityResolver interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ChatService реализует хранилище переписки: история, отправка, отметка
// о прочтении. Записи по одной паре пользователей сериализуются
// per-pair мьютексом, разные пары друг другу не мешают.
type ChatService struct {
	messages MessageStore
	users    IdentityResolver

	mu        sync.Mutex
	pairLocks map[string]*sync.Mutex
}

// NewChatService создаёт сервис переписки.
func NewChatService(messages MessageStore, users IdentityResolver) *ChatService {
	return &ChatService{
		messages:  messages,
		users:     users,
		pairLocks: make(map[string]*sync.Mutex),
	}
}

// History возвращает всю переписку пары по возрастанию created_at.
// Каждый вызов — полная перезагрузка, курсоров нет.
func (s *ChatService) History(ctx context.Context, userA, userB uuid.UUID) ([]models.Message, error) {
	messages, err := s.messages.ListByPair(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Send валидирует, проверяет обе личности и сохраняет сообщение.
// id и created_at назначает сервер при записи; clientTag прокидывается
// обратно отправителю, чтобы его клиент сопоставил ответ со своей
// provisional-копией.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID uuid.UUID, body, clientTag string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя отправить сообщение самому себе")
	}

	if err := validation.ValidateMessageBody(body); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	for _, id := range []uuid.UUID{senderID, receiverID} {
		exists, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("chat service: проверка пользователя: %w", err)
		}
		if !exists {
			return nil, apperror.ErrUserNotFound
		}
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       strings.TrimSpace(body),
	}

	unlock := s.lockPair(senderID, receiverID)
	defer unlock()

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	message.ClientTag = clientTag
	return message, nil
}

// MarkRead отмечает прочитанными все сообщения от partner к reader.
// Идемпотентен; возвращает количество впервые отмеченных сообщений.
func (s *ChatService) MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int64, error) {
	unlock := s.lockPair(readerID, partnerID)
	defer unlock()

	return s.messages.MarkRead(ctx, readerID, partnerID)
}

// GetMessage возвращает сообщение по идентификатору.
func (s *ChatService) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return s.messages.GetByID(ctx, id)
}

// lockPair берёт мьютекс нормализованной пары: (A,B) и (B,A) дают
// один и тот же ключ.
func (s *ChatService) lockPair(userA, userB uuid.UUID) func() {
	key := PairKey(userA, userB)

	s.mu.Lock()
	lock, ok := s.pairLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.pairLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// PairKey возвращает канонический ключ пары пользователей:
// идентификаторы упорядочиваются лексикографически.
func PairKey(userA, userB uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}
