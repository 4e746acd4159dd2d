package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nikelchange/kurbot/internal/domain"
)

// MessageRepository defines persistence operations for the message log.
type MessageRepository interface {
	Append(ctx context.Context, message *domain.Message) error
	List(ctx context.Context, search string, messageType domain.MessageType, limit int) ([]domain.Message, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type messageRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewMessageRepository creates a new SQL-backed message repository.
func NewMessageRepository(db *sql.DB, log *slog.Logger) MessageRepository {
	return &messageRepository{
		db:  db,
		log: log,
	}
}

func (r *messageRepository) Append(ctx context.Context, message *domain.Message) error {
	const query = `
		INSERT INTO messages (telegram_id, username, message_text, message_type, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		message.TelegramID,
		message.Username,
		message.Text,
		string(message.Type),
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to append message", slog.Int64("telegram_id", message.TelegramID), slog.Any("error", err))
		}
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (r *messageRepository) List(ctx context.Context, search string, messageType domain.MessageType, limit int) ([]domain.Message, error) {
	const query = `
		SELECT id, telegram_id, username, message_text, message_type, created_at
		FROM messages
		WHERE ($1 = ''
		   OR message_text ILIKE '%' || $1 || '%'
		   OR username ILIKE '%' || $1 || '%'
		   OR telegram_id::text LIKE '%' || $1 || '%')
		  AND ($2 = '' OR message_type = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, search, string(messageType), limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var message domain.Message
		var messageType string
		if err := rows.Scan(
			&message.ID,
			&message.TelegramID,
			&message.Username,
			&message.Text,
			&messageType,
			&message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		message.Type = domain.MessageType(messageType)
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *messageRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM messages WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM messages`)
}
