// Package audit persists the per-update audit trail: user profile upserts,
// the message log, and activity entries. Recording is best-effort by
// contract — a failed write is logged and swallowed so the conversational
// path never stalls on the storage collaborator.
package audit

import (
	"context"
	"log/slog"

	"github.com/nikelchange/kurbot/internal/domain"
	"github.com/nikelchange/kurbot/internal/repository"
)

// Recorder captures the write side of the storage collaborator.
type Recorder interface {
	// RecordInbound performs the unconditional per-update bookkeeping:
	// upsert the sender's profile, append the message log entry, and append
	// the initial activity record. Exactly one of each per processed update.
	RecordInbound(ctx context.Context, user *domain.User, message *domain.Message, action, details string)
	// Record appends a single activity entry.
	Record(ctx context.Context, telegramID int64, action, details string)
}

type recorder struct {
	users      repository.UserRepository
	messages   repository.MessageRepository
	activities repository.ActivityRepository
	log        *slog.Logger
}

// NewRecorder builds a Recorder over the SQL repositories.
func NewRecorder(
	users repository.UserRepository,
	messages repository.MessageRepository,
	activities repository.ActivityRepository,
	log *slog.Logger,
) Recorder {
	if log == nil {
		log = slog.Default()
	}

	return &recorder{
		users:      users,
		messages:   messages,
		activities: activities,
		log:        log,
	}
}

func (r *recorder) RecordInbound(ctx context.Context, user *domain.User, message *domain.Message, action, details string) {
	if user != nil {
		if err := r.users.Upsert(ctx, user); err != nil {
			r.log.Error("audit: user upsert failed",
				slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		}
	}

	if message != nil {
		if err := r.messages.Append(ctx, message); err != nil {
			r.log.Error("audit: message append failed",
				slog.Int64("telegram_id", message.TelegramID), slog.Any("error", err))
		}
	}

	if user != nil {
		r.Record(ctx, user.TelegramID, action, details)
	}
}

func (r *recorder) Record(ctx context.Context, telegramID int64, action, details string) {
	entry := &domain.Activity{
		TelegramID: telegramID,
		Action:     action,
		Details:    details,
	}

	if err := r.activities.Append(ctx, entry); err != nil {
		r.log.Error("audit: activity append failed",
			slog.Int64("telegram_id", telegramID), slog.String("action", action), slog.Any("error", err))
	}
}
