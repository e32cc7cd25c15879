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

// ErrMessageNotFound возвращается, когда сообщение не найдено.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository отвечает за хранение личных сообщений.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение. id и created_at назначает база:
// сообщение либо записано целиком и получило id, либо не записано вовсе.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, report_status
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		message.SenderID,
		message.ReceiverID,
		message.Body,
	).Scan(&message.ID, &message.CreatedAt, &message.ReportStatus); err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}

	return nil
}

// GetByID возвращает сообщение по идентификатору.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.db.GetContext(ctx, &message, `SELECT * FROM messages WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("message repository: get by id %w", err)
	}

	return &message, nil
}

// ListByPair возвращает всю переписку пары пользователей по возрастанию
// created_at. Запрос симметричен: (A,B) и (B,A) дают один и тот же диалог.
func (r *MessageRepository) ListByPair(ctx context.Context, userA, userB uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("message repository: list by pair %w", err)
	}

	return messages, nil
}

// MarkRead проставляет read_at всем непрочитанным сообщениям от partner
// к reader. Идемпотентен: повторный вызов ничего не меняет, read_at
// однажды установленный не перезаписывается.
func (r *MessageRepository) MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE receiver_id = $1 AND sender_id = $2 AND read_at IS NULL
	`, readerID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("message repository: mark read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("message repository: mark read rows affected %w", err)
	}

	return rowsAffected, nil
}
