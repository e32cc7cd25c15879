package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
)

// ErrReportNotFound возвращается, когда жалоба не найдена.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository отвечает за жалобы на сообщения.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create сохраняет жалобу и переводит сообщение в статус reported
// одной транзакцией: частично созданных жалоб не бывает.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reports (message_id, reporter_id, reason, additional_info)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`

	if err := tx.QueryRowxContext(
		ctx,
		query,
		report.MessageID,
		report.ReporterID,
		report.Reason,
		report.AdditionalInfo,
	).Scan(&report.ID, &report.Status, &report.CreatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	// Статус сообщения двигается только вперёд: none -> reported.
	// Повторная жалоба на уже рассмотренное сообщение статус не откатывает.
	if _, err := tx.ExecContext(ctx, `
		UPDATE messages SET report_status = $2
		WHERE id = $1 AND report_status = $3
	`, report.MessageID, models.MessageReportStatusReported, models.MessageReportStatusNone); err != nil {
		return fmt.Errorf("report repository: advance message status %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("report repository: commit %w", err)
	}

	return nil
}

// GetByID возвращает жалобу по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}

	return &report, nil
}

// ListOpen возвращает открытые жалобы в порядке поступления.
func (r *ReportRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, models.ReportStatusOpen, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list open %w", err)
	}

	return reports, nil
}

// ListByReporter возвращает жалобы пользователя.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reporterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list by reporter %w", err)
	}

	return reports, nil
}

// Resolve закрывает жалобу решением модератора и отмечает сообщение
// как рассмотренное.
func (r *ReportRepository) Resolve(ctx context.Context, reportID, moderatorID uuid.UUID, status string) (*models.Report, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("report repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var report models.Report
	err = tx.GetContext(ctx, &report, `
		UPDATE reports SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING *
	`, reportID, status, moderatorID, models.ReportStatusOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("report repository: resolve %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages SET report_status = $2
		WHERE id = $1 AND report_status = $3
	`, report.MessageID, models.MessageReportStatusReviewed, models.MessageReportStatusReported); err != nil {
		return nil, fmt.Errorf("report repository: advance message status %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("report repository: commit %w", err)
	}

	return &report, nil
}
