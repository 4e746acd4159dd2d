package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nikelchange/kurbot/internal/domain"
)

// ActivityRepository defines persistence operations for the activity log.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity) error
	List(ctx context.Context, search string, limit int) ([]domain.Activity, error)
	Delete(ctx context.Context, id int64) error
	CountByAction(ctx context.Context, action string) (int64, error)
}

type activityRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewActivityRepository creates a new SQL-backed activity repository.
func NewActivityRepository(db *sql.DB, log *slog.Logger) ActivityRepository {
	return &activityRepository{
		db:  db,
		log: log,
	}
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	const query = `
		INSERT INTO activity_logs (telegram_id, action, details, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		activity.TelegramID,
		activity.Action,
		activity.Details,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to append activity", slog.Int64("telegram_id", activity.TelegramID), slog.String("action", activity.Action), slog.Any("error", err))
		}
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

func (r *activityRepository) List(ctx context.Context, search string, limit int) ([]domain.Activity, error) {
	const query = `
		SELECT id, telegram_id, action, details, created_at
		FROM activity_logs
		WHERE $1 = ''
		   OR action ILIKE '%' || $1 || '%'
		   OR details ILIKE '%' || $1 || '%'
		   OR telegram_id::text LIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, search, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.TelegramID,
			&activity.Action,
			&activity.Details,
			&activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

func (r *activityRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM activity_logs WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	return nil
}

func (r *activityRepository) CountByAction(ctx context.Context, action string) (int64, error) {
	const query = `SELECT COUNT(*) FROM activity_logs WHERE action = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, action).Scan(&count); err != nil {
		return 0, fmt.Errorf("count activities by action: %w", err)
	}

	return count, nil
}
