package apperr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/nikelchange/kurbot/pkg/logger"
)

// Handler centralizes error logging, Sentry reporting, and the choice of
// user-facing message.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

// NewHandler builds a Handler. When sentryEnabled is false no events leave
// the process.
func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs the error with its taxonomy metadata, reports high-severity
// errors to Sentry, and returns the user-facing message (empty when the
// error has no conversational surface).
func (h *Handler) Handle(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		h.logError(ctx, slog.String("message", err.Error()), slog.String("severity", string(SeverityHigh)))
		if h.sentryEnabled {
			h.sendToSentry(err)
		}
		return ""
	}

	h.logError(ctx,
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	)

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(err)
	}

	return appErr.UserMessage
}

func (h *Handler) logError(ctx context.Context, attrs ...slog.Attr) {
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	h.log.Error("application error", args...)
}

func (h *Handler) sendToSentry(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
