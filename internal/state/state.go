// Package state tracks per-chat pending conversions: the marker that the
// next plain-text message from a chat is expected to be a numeric amount for
// a previously chosen currency pair.
package state

import (
	"errors"
	"time"

	"github.com/nikelchange/kurbot/internal/currency"
)

// ErrNotFound indicates that a chat has no pending conversion.
var ErrNotFound = errors.New("pending conversion not found")

// PendingConversion is the per-chat waiting state set when a user picks a
// conversion direction from the inline menu in a private chat.
type PendingConversion struct {
	From      currency.Code `json:"from"`
	To        currency.Code `json:"to"`
	CreatedAt time.Time     `json:"created_at"`
}
