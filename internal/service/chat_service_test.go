package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mentorhub-backend/internal/repository"
)

// mockMessageStore реализует MessageStore для тестов.
type mockMessageStore struct {
	messages []models.Message
}

func (m *mockMessageStore) Create(ctx context.Context, message *models.Message) error {
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	message.ReportStatus = models.MessageReportStatusNone
	m.messages = append(m.messages, *message)
	return nil
}

func (m *mockMessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	for i := range m.messages {
		if m.messages[i].ID == id {
			msg := m.messages[i]
			return &msg, nil
		}
	}
	return nil, repository.ErrMessageNotFound
}

func (m *mockMessageStore) ListByPair(ctx context.Context, userA, userB uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageStore) MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int64, error) {
	var marked int64
	now := time.Now()
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ReceiverID == readerID && msg.SenderID == partnerID && msg.ReadAt == nil {
			msg.ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

// mockIdentityResolver считает существующими только перечисленных пользователей.
type mockIdentityResolver struct {
	known map[uuid.UUID]bool
}

func (m *mockIdentityResolver) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

func newChatFixture(users ...uuid.UUID) (*ChatService, *mockMessageStore) {
	store := &mockMessageStore{}
	known := make(map[uuid.UUID]bool)
	for _, id := range users {
		known[id] = true
	}
	return NewChatService(store, &mockIdentityResolver{known: known}), store
}

func TestChatService_Send(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	svc, store := newChatFixture(sender, receiver)
	ctx := context.Background()

	message, err := svc.Send(ctx, sender, receiver, "  привет!  ", "tag-1")
	if err != nil {
		t.Fatalf("send вернул ошибку: %v", err)
	}

	if message.ID == uuid.Nil {
		t.Fatalf("id должен назначаться при записи")
	}
	if message.Body != "привет!" {
		t.Fatalf("тело должно быть обрезано, получили %q", message.Body)
	}
	if message.ClientTag != "tag-1" {
		t.Fatalf("client_tag должен вернуться отправителю")
	}
	if message.ReadAt != nil {
		t.Fatalf("новое сообщение не может быть прочитанным")
	}
	if len(store.messages) != 1 {
		t.Fatalf("ожидалось одно сообщение в хранилище, получили %d", len(store.messages))
	}
	// Тег — корреляция ответа, в хранилище он не попадает.
	if store.messages[0].ClientTag != "" {
		t.Fatalf("client_tag не должен сохраняться")
	}
}

func TestChatService_SendValidation(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	svc, _ := newChatFixture(sender, receiver)
	ctx := context.Background()

	if _, err := svc.Send(ctx, sender, receiver, "   ", ""); err == nil {
		t.Fatalf("пустое сообщение должно отклоняться")
	}

	if _, err := svc.Send(ctx, sender, sender, "привет", ""); err == nil {
		t.Fatalf("сообщение самому себе должно отклоняться")
	}

	_, err := svc.Send(ctx, sender, uuid.New(), "привет", "")
	if !errors.Is(err, apperror.ErrUserNotFound) {
		t.Fatalf("неизвестный получатель: ожидался ErrUserNotFound, получили %v", err)
	}
}

func TestChatService_HistoryEmpty(t *testing.T) {
	svc, _ := newChatFixture()

	messages, err := svc.History(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("history вернул ошибку: %v", err)
	}
	if messages == nil {
		t.Fatalf("пустая история должна быть пустым срезом, не nil")
	}
	if len(messages) != 0 {
		t.Fatalf("ожидалась пустая история")
	}
}

func TestChatService_MarkReadIdempotent(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	svc, _ := newChatFixture(sender, receiver)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Send(ctx, sender, receiver, "сообщение", ""); err != nil {
			t.Fatalf("send вернул ошибку: %v", err)
		}
	}

	marked, err := svc.MarkRead(ctx, receiver, sender)
	if err != nil {
		t.Fatalf("markRead вернул ошибку: %v", err)
	}
	if marked != 3 {
		t.Fatalf("ожидалось 3 отмеченных сообщения, получили %d", marked)
	}

	// Повторный вызов ничего не меняет.
	marked, err = svc.MarkRead(ctx, receiver, sender)
	if err != nil {
		t.Fatalf("повторный markRead вернул ошибку: %v", err)
	}
	if marked != 0 {
		t.Fatalf("повторная отметка должна вернуть 0, получили %d", marked)
	}
}

func TestPairKeySymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if PairKey(a, b) != PairKey(b, a) {
		t.Fatalf("ключ пары должен не зависеть от порядка участников")
	}
	if PairKey(a, b) == PairKey(a, uuid.New()) {
		t.Fatalf("разные пары должны давать разные ключи")
	}
}
