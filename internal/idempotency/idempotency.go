// Package idempotency guards update handling against Telegram redeliveries
// and button double-taps: each update key executes at most once while its
// record lives.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikelchange/kurbot/internal/telegram"
)

// ErrDuplicate indicates that an update with the same key was already
// handled (or is being handled right now).
var ErrDuplicate = errors.New("duplicate update")

// Store persists claimed update keys.
type Store interface {
	// Acquire claims the key for the given TTL. False means the key is
	// already claimed.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the key early, allowing a retried delivery after a
	// failed handling attempt.
	Release(ctx context.Context, key string) error
}

// Manager executes operations at most once per key.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewManager builds a Manager. A nil store disables deduplication.
func NewManager(store Store, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Execute runs fn unless the key was already claimed. A failing fn releases
// the claim so a redelivered update gets another attempt.
func (m *Manager) Execute(ctx context.Context, key string, fn func(context.Context) error) error {
	if m == nil || m.store == nil || key == "" {
		return fn(ctx)
	}

	acquired, err := m.store.Acquire(ctx, key, m.ttl)
	if err != nil {
		// A broken dedup store must not drop updates; handle anyway.
		m.log.Warn("idempotency acquire failed, handling without dedup",
			slog.String("key", key), slog.Any("error", err))
		return fn(ctx)
	}

	if !acquired {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(ctx, key); releaseErr != nil {
			m.log.Warn("idempotency release failed",
				slog.String("key", key), slog.Any("error", releaseErr))
		}
		return err
	}

	return nil
}

// UpdateKey derives the deduplication key for an update: the callback id for
// button presses, the chat-scoped message id for plain messages.
func UpdateKey(update *telegram.Update) string {
	if update == nil {
		return ""
	}

	if update.Callback != nil {
		return "cb:" + update.Callback.ID
	}

	if update.Message != nil && update.Message.ID != 0 {
		return fmt.Sprintf("msg:%d:%d", update.Message.Chat.ID, update.Message.ID)
	}

	return ""
}
