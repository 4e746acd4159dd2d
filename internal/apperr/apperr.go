// Package apperr defines the application error taxonomy and the central
// error handler. Input errors stay user-visible and never escalate;
// collaborator errors are swallowed after logging; dependency errors surface
// as a generic retry-later message.
package apperr

import (
	"fmt"

	"github.com/nikelchange/kurbot/internal/render"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, an operator-facing message, and the
// Turkish user-facing message the bot replies with.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewInputError marks invalid user input: unparseable amounts, malformed
// /convert commands, unsupported pairs.
func NewInputError(msg, userMessage string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: userMessage,
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStorageError marks a failed write to the storage collaborator.
func NewStorageError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("storage error: %s", underlying),
		UserMessage: "",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewQuoteError marks a failed price lookup against the quote service.
func NewQuoteError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "quote service error",
		UserMessage: render.PricesFailedText,
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewSendError marks a failed outbound delivery to the Telegram Bot API.
func NewSendError(cause error) *AppError {
	return &AppError{
		Code:        "E310",
		Message:     "telegram send error",
		UserMessage: render.ConversionFailedText,
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewInternalError marks an unexpected failure inside the dispatcher.
func NewInternalError(cause error) *AppError {
	var underlying string
	if cause != nil {
		underlying = cause.Error()
	}

	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("internal error: %s", underlying),
		UserMessage: render.ConversionFailedText,
		Severity:    SeverityCritical,
		Retryable:   false,
		cause:       cause,
	}
}
