// Package domain holds the persisted record types shared between the bot
// core and the storage collaborator.
package domain

import "time"

// User is a Telegram user profile, upserted on every processed update.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	LastActive time.Time
	CreatedAt  time.Time
}
