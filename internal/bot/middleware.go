package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikelchange/kurbot/internal/apperr"
	"github.com/nikelchange/kurbot/internal/idempotency"
	"github.com/nikelchange/kurbot/internal/ratelimit"
	"github.com/nikelchange/kurbot/internal/telegram"
	"github.com/nikelchange/kurbot/pkg/logger"
	"github.com/nikelchange/kurbot/pkg/metrics"
)

// UpdateHandler processes one inbound update.
type UpdateHandler func(ctx context.Context, update *telegram.Update) error

// Middleware wraps an UpdateHandler with a cross-cutting concern.
type Middleware func(UpdateHandler) UpdateHandler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(handler UpdateHandler, middlewares ...Middleware) UpdateHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}

// Recovery converts a panic in the chain into an internal error so the
// webhook boundary can report a server failure instead of crashing.
func Recovery(errs *apperr.Handler) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return func(ctx context.Context, update *telegram.Update) (err error) {
			defer func() {
				if r := recover(); r != nil {
					appErr := apperr.NewInternalError(fmt.Errorf("panic: %v", r))
					errs.Handle(ctx, appErr)
					err = appErr
				}
			}()

			return next(ctx, update)
		}
	}
}

// Logging tags the context with a correlation id and logs the outcome of
// each update.
func Logging(log *slog.Logger) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return func(ctx context.Context, update *telegram.Update) error {
			if logger.CorrelationIDFromContext(ctx) == "" {
				ctx = logger.WithCorrelationID(ctx, uuid.NewString())
			}

			start := time.Now()
			err := next(ctx, update)

			attrs := []any{
				slog.String("kind", updateKind(update)),
				slog.Int64("chat_id", chatIDOf(update)),
				slog.Duration("duration", time.Since(start)),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
			}

			if err != nil && !errors.Is(err, idempotency.ErrDuplicate) {
				log.Error("update failed", append(attrs, slog.Any("error", err))...)
				return err
			}

			log.Info("update handled", attrs...)
			return err
		}
	}
}

// Metrics records the update counter and handling duration.
func Metrics() Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return func(ctx context.Context, update *telegram.Update) error {
			start := time.Now()
			err := next(ctx, update)

			status := "ok"
			switch {
			case errors.Is(err, idempotency.ErrDuplicate):
				status = "duplicate"
			case err != nil:
				status = "error"
			}

			metrics.RecordUpdate(updateKind(update), status, time.Since(start))
			return err
		}
	}
}

// Idempotency drops redelivered updates. Duplicates complete successfully
// without reaching the handler.
func Idempotency(manager *idempotency.Manager) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return func(ctx context.Context, update *telegram.Update) error {
			key := idempotency.UpdateKey(update)
			err := manager.Execute(ctx, key, func(ctx context.Context) error {
				return next(ctx, update)
			})
			if errors.Is(err, idempotency.ErrDuplicate) {
				return nil
			}

			return err
		}
	}
}

// RateLimit silently drops updates from chats that exceed their window. A
// broken limiter never blocks handling.
func RateLimit(limiter ratelimit.Limiter, log *slog.Logger) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return func(ctx context.Context, update *telegram.Update) error {
			chatID := chatIDOf(update)
			if chatID == 0 {
				return next(ctx, update)
			}

			allowed, err := limiter.Allow(ctx, chatID)
			if err != nil {
				log.Warn("rate limiter failed, allowing update",
					slog.Int64("chat_id", chatID), slog.Any("error", err))
				return next(ctx, update)
			}

			if !allowed {
				log.Info("rate limited", slog.Int64("chat_id", chatID))
				return nil
			}

			return next(ctx, update)
		}
	}
}

func updateKind(update *telegram.Update) string {
	switch {
	case update == nil:
		return "empty"
	case update.Callback != nil:
		return "callback"
	case update.Message != nil:
		return "message"
	default:
		return "empty"
	}
}

func chatIDOf(update *telegram.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Callback != nil:
		return update.Callback.Chat.ID
	case update.Message != nil:
		return update.Message.Chat.ID
	default:
		return 0
	}
}
