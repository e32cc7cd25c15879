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

// mockReportStore реализует ReportStore для тестов.
type mockReportStore struct {
	reports  map[uuid.UUID]*models.Report
	messages *mockMessageStore
}

func newMockReportStore(messages *mockMessageStore) *mockReportStore {
	return &mockReportStore{
		reports:  make(map[uuid.UUID]*models.Report),
		messages: messages,
	}
}

func (m *mockReportStore) Create(ctx context.Context, report *models.Report) error {
	report.ID = uuid.New()
	report.Status = models.ReportStatusOpen
	report.CreatedAt = time.Now()
	m.reports[report.ID] = report

	for i := range m.messages.messages {
		msg := &m.messages.messages[i]
		if msg.ID == report.MessageID && msg.ReportStatus == models.MessageReportStatusNone {
			msg.ReportStatus = models.MessageReportStatusReported
		}
	}
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	if report, ok := m.reports[id]; ok {
		return report, nil
	}
	return nil, repository.ErrReportNotFound
}

func (m *mockReportStore) ListOpen(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var out []models.Report
	for _, report := range m.reports {
		if report.Status == models.ReportStatusOpen {
			out = append(out, *report)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var out []models.Report
	for _, report := range m.reports {
		if report.ReporterID == reporterID {
			out = append(out, *report)
		}
	}
	return out, nil
}

func (m *mockReportStore) Resolve(ctx context.Context, reportID, moderatorID uuid.UUID, status string) (*models.Report, error) {
	report, ok := m.reports[reportID]
	if !ok || report.Status != models.ReportStatusOpen {
		return nil, repository.ErrReportNotFound
	}

	now := time.Now()
	report.Status = status
	report.ReviewedBy = &moderatorID
	report.ReviewedAt = &now
	return report, nil
}

// mockQueuePublisher записывает опубликованные жалобы.
type mockQueuePublisher struct {
	published chan string
}

func (m *mockQueuePublisher) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	m.published <- key
	return nil
}

func reportFixture(t *testing.T) (*ReportService, *mockMessageStore, *mockQueuePublisher, models.Message) {
	t.Helper()

	messages := &mockMessageStore{}
	message := &models.Message{
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Body:       "подозрительное сообщение",
	}
	if err := messages.Create(context.Background(), message); err != nil {
		t.Fatalf("подготовка сообщения: %v", err)
	}

	queue := &mockQueuePublisher{published: make(chan string, 1)}
	svc := NewReportService(newMockReportStore(messages), messages, queue, "moderation.reports")
	return svc, messages, queue, *message
}

func TestReportService_CreateReport(t *testing.T) {
	svc, messages, queue, message := reportFixture(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, message.ID, message.ReceiverID, models.ReportReasonSpam, nil)
	if err != nil {
		t.Fatalf("createReport вернул ошибку: %v", err)
	}

	if report.Status != models.ReportStatusOpen {
		t.Fatalf("новая жалоба должна быть открытой, получили %s", report.Status)
	}
	if messages.messages[0].ReportStatus != models.MessageReportStatusReported {
		t.Fatalf("сообщение должно перейти в статус reported")
	}

	// Публикация в очередь асинхронная и best-effort.
	select {
	case key := <-queue.published:
		if key != message.ID.String() {
			t.Fatalf("ключ публикации должен быть id сообщения, получили %s", key)
		}
	case <-time.After(time.Second):
		t.Fatalf("жалоба не опубликована в очередь модерации")
	}
}

func TestReportService_CreateReportOnlyReceiver(t *testing.T) {
	svc, _, _, message := reportFixture(t)

	// Отправитель жалуется на собственное сообщение.
	_, err := svc.CreateReport(context.Background(), message.ID, message.SenderID, models.ReportReasonSpam, nil)
	if err == nil {
		t.Fatalf("жалоба не от получателя должна отклоняться")
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeValidation {
		t.Fatalf("ожидалась ошибка валидации, получили %v", err)
	}
}

func TestReportService_CreateReportInvalidReason(t *testing.T) {
	svc, _, _, message := reportFixture(t)

	_, err := svc.CreateReport(context.Background(), message.ID, message.ReceiverID, "because", nil)
	if err == nil {
		t.Fatalf("причина вне списка должна отклоняться")
	}
}

func TestReportService_CreateReportUnknownMessage(t *testing.T) {
	svc, _, _, _ := reportFixture(t)

	_, err := svc.CreateReport(context.Background(), uuid.New(), uuid.New(), models.ReportReasonSpam, nil)
	if !errors.Is(err, apperror.ErrMessageNotFound) {
		t.Fatalf("ожидался ErrMessageNotFound, получили %v", err)
	}
}

func TestReportService_ResolveReport(t *testing.T) {
	svc, _, queue, message := reportFixture(t)
	ctx := context.Background()

	report, err := svc.CreateReport(ctx, message.ID, message.ReceiverID, models.ReportReasonHarassment, nil)
	if err != nil {
		t.Fatalf("createReport вернул ошибку: %v", err)
	}
	<-queue.published

	moderator := uuid.New()

	if _, err := svc.ResolveReport(ctx, report.ID, moderator, models.ReportStatusOpen); err == nil {
		t.Fatalf("перевод жалобы обратно в open должен отклоняться")
	}

	resolved, err := svc.ResolveReport(ctx, report.ID, moderator, models.ReportStatusDismissed)
	if err != nil {
		t.Fatalf("resolveReport вернул ошибку: %v", err)
	}
	if resolved.Status != models.ReportStatusDismissed {
		t.Fatalf("ожидался статус dismissed, получили %s", resolved.Status)
	}
	if resolved.ReviewedBy == nil || *resolved.ReviewedBy != moderator {
		t.Fatalf("решение должно хранить модератора")
	}

	// Закрытую жалобу нельзя решить повторно.
	if _, err := svc.ResolveReport(ctx, report.ID, moderator, models.ReportStatusReviewed); err == nil {
		t.Fatalf("повторное решение закрытой жалобы должно отклоняться")
	}
}
