package domain

import "time"

// MessageType classifies a logged inbound payload.
type MessageType string

const (
	// MessageTypeCommand marks texts starting with a slash.
	MessageTypeCommand MessageType = "command"
	// MessageTypeText marks plain texts.
	MessageTypeText MessageType = "text"
	// MessageTypeCallback marks inline button payloads.
	MessageTypeCallback MessageType = "callback"
)

// Message is one logged inbound payload. Append-only.
type Message struct {
	ID         int64
	TelegramID int64
	Username   string
	Text       string
	Type       MessageType
	CreatedAt  time.Time
}
