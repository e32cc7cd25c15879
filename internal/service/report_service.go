package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/goroutine"
	"github.com/ignatzorin/mentorhub-backend/internal/logger"
	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/mentorhub-backend/internal/repository"
	"github.com/ignatzorin/mentorhub-backend/internal/validation"
)

// ReportStore описывает зависимости ReportService от хранилища жалоб.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Report, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error)
	Resolve(ctx context.Context, reportID, moderatorID uuid.UUID, status string) (*models.Report, error)
}

// MessageGetter возвращает сообщение для проверки предусловий жалобы.
type MessageGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
}

// QueuePublisher публикует жалобу во внешнюю очередь модерации.
type QueuePublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// ReportService обрабатывает жалобы получателей на сообщения.
// Публикация в очередь модерации — best-effort: жалоба в БД первична,
// ошибка брокера отправителя жалобы не касается.
type ReportService struct {
	reports  ReportStore
	messages MessageGetter
	queue    QueuePublisher
	topic    string
}

// NewReportService создаёт сервис модерации. queue может быть nil.
func NewReportService(reports ReportStore, messages MessageGetter, queue QueuePublisher, topic string) *ReportService {
	return &ReportService{
		reports:  reports,
		messages: messages,
		queue:    queue,
		topic:    topic,
	}
}

// CreateReport регистрирует жалобу на сообщение.
// Жаловаться может только получатель сообщения, причина — из
// фиксированного набора. Повторные жалобы того же получателя не
// дедуплицируются и записываются отдельными строками.
func (s *ReportService) CreateReport(ctx context.Context, messageID, reporterID uuid.UUID, reason string, additionalInfo *string) (*models.Report, error) {
	if !models.ReportReasons[reason] {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимая причина жалобы")
	}

	if err := validation.ValidateReportInfo(additionalInfo); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, apperror.ErrMessageNotFound
		}
		return nil, err
	}

	// Отправитель не может пожаловаться на собственное сообщение.
	if message.ReceiverID != reporterID {
		return nil, apperror.New(apperror.ErrCodeValidation, "жаловаться может только получатель сообщения")
	}

	report := &models.Report{
		MessageID:      messageID,
		ReporterID:     reporterID,
		Reason:         reason,
		AdditionalInfo: additionalInfo,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.publishToQueue(ctx, report)

	return report, nil
}

// GetReport возвращает жалобу по идентификатору.
func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// ListOpenReports возвращает очередь открытых жалоб для модератора.
func (s *ReportService) ListOpenReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	reports, err := s.reports.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ListMyReports возвращает жалобы, поданные пользователем.
func (s *ReportService) ListMyReports(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	reports, err := s.reports.ListByReporter(ctx, reporterID, limit, offset)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// ResolveReport закрывает жалобу решением модератора.
func (s *ReportService) ResolveReport(ctx context.Context, reportID, moderatorID uuid.UUID, status string) (*models.Report, error) {
	if status != models.ReportStatusReviewed && status != models.ReportStatusDismissed {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый статус жалобы")
	}

	report, err := s.reports.Resolve(ctx, reportID, moderatorID, status)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	return report, nil
}

// publishToQueue асинхронно публикует жалобу в очередь модерации.
func (s *ReportService) publishToQueue(ctx context.Context, report *models.Report) {
	if s.queue == nil {
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		if logger.Log != nil {
			logger.Log.Errorf("report service: не удалось сериализовать жалобу %s: %v", report.ID, err)
		}
		return
	}

	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		if err := s.queue.Publish(ctx, s.topic, report.MessageID.String(), payload, map[string]string{
			"reason": report.Reason,
		}); err != nil && logger.Log != nil {
			logger.Log.Errorf("report service: публикация жалобы %s в очередь: %v", report.ID, err)
		}
	})
}
