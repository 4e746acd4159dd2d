// Package repository implements the storage collaborator over PostgreSQL.
// The bot core only calls the write side (upsert user, append message,
// append activity); the list, search, delete, and count operations serve the
// admin dashboard API.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikelchange/kurbot/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Upsert inserts the user or refreshes the profile fields and
	// last_active of an existing record, keyed by telegram id.
	Upsert(ctx context.Context, user *domain.User) error
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	List(ctx context.Context, search string, limit int) ([]domain.User, error)
	Delete(ctx context.Context, telegramID int64) error
	Count(ctx context.Context) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, username, first_name, last_name, last_active, created_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    last_active = NOW()
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to upsert user", slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
		SELECT id, telegram_id, username, first_name, last_name, last_active, created_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, telegramID)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.LastActive,
		&user.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}

	return &user, nil
}

func (r *userRepository) List(ctx context.Context, search string, limit int) ([]domain.User, error) {
	const query = `
		SELECT id, telegram_id, username, first_name, last_name, last_active, created_at
		FROM users
		WHERE $1 = ''
		   OR username ILIKE '%' || $1 || '%'
		   OR first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR telegram_id::text LIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, search, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.LastActive,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, telegramID int64) error {
	const query = `DELETE FROM users WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	return countQuery(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

func (r *userRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM users WHERE last_active > $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}

	return count, nil
}

func countQuery(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var count int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}

	return count, nil
}
