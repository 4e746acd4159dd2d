package domain

import "time"

// Activity action tags recorded by the dispatcher.
const (
	ActionMessageReceived     = "message_received"
	ActionCallbackReceived    = "callback_received"
	ActionMenuOpened          = "menu_opened"
	ActionPricesViewed        = "prices_viewed"
	ActionConvertMenuOpened   = "convert_menu_opened"
	ActionConversionStarted   = "conversion_started"
	ActionConversionPrompt    = "conversion_prompt"
	ActionConversionCompleted = "conversion_completed"
	ActionConversionError     = "conversion_error"
)

// Activity is one audit log entry. Append-only; CreatedAt is assigned by the
// database at write time.
type Activity struct {
	ID         int64
	TelegramID int64
	Action     string
	Details    string
	CreatedAt  time.Time
}
