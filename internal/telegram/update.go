// Package telegram adapts the Telegram Bot API transport: it parses inbound
// webhook updates into a strict internal shape and sends outbound messages
// through telebot.
package telegram

import (
	"encoding/json"
	"errors"
	"fmt"

	telebot "gopkg.in/telebot.v3"
)

// ErrMalformedUpdate indicates an update whose declared shape is missing
// required fields. The parser fails closed instead of handing half-formed
// updates to the dispatcher.
var ErrMalformedUpdate = errors.New("malformed telegram update")

// ChatType mirrors the Telegram chat type discriminator.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSuperGroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// Chat identifies the conversation an update belongs to.
type Chat struct {
	ID   int64
	Type ChatType
}

// IsGroup reports whether the chat is a group or supergroup.
func (c Chat) IsGroup() bool {
	return c.Type == ChatGroup || c.Type == ChatSuperGroup
}

// IsPrivate reports whether the chat is a one-on-one conversation.
func (c Chat) IsPrivate() bool {
	return c.Type == ChatPrivate
}

// User is the sender of a message or callback.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Message is an inbound plain or command message.
type Message struct {
	ID   int
	Chat Chat
	From User
	Text string
}

// Callback is an inbound inline-button press.
type Callback struct {
	ID   string
	Chat Chat
	From User
	Data string
}

// Update is the discriminated union of inbound update kinds. At most one
// field is non-nil; both nil means the update carried a shape the bot does
// not handle (edits, channel posts, ...), which is a no-op, not an error.
type Update struct {
	Message  *Message
	Callback *Callback
}

// ParseUpdate decodes a webhook body into the internal update shape. The
// wire format is telebot's Update struct; conversion to the internal types
// validates that every field the dispatcher relies on is present.
func ParseUpdate(body []byte) (*Update, error) {
	var wire telebot.Update
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}

	switch {
	case wire.Message != nil:
		message, err := convertMessage(wire.Message)
		if err != nil {
			return nil, err
		}
		return &Update{Message: message}, nil

	case wire.Callback != nil:
		callback, err := convertCallback(wire.Callback)
		if err != nil {
			return nil, err
		}
		return &Update{Callback: callback}, nil

	default:
		return &Update{}, nil
	}
}

func convertMessage(wire *telebot.Message) (*Message, error) {
	if wire.Chat == nil || wire.Chat.ID == 0 {
		return nil, fmt.Errorf("%w: message without chat", ErrMalformedUpdate)
	}
	if wire.Sender == nil || wire.Sender.ID == 0 {
		return nil, fmt.Errorf("%w: message without sender", ErrMalformedUpdate)
	}

	return &Message{
		ID:   wire.ID,
		Chat: convertChat(wire.Chat),
		From: convertUser(wire.Sender),
		Text: wire.Text,
	}, nil
}

func convertCallback(wire *telebot.Callback) (*Callback, error) {
	if wire.ID == "" {
		return nil, fmt.Errorf("%w: callback without id", ErrMalformedUpdate)
	}
	if wire.Sender == nil || wire.Sender.ID == 0 {
		return nil, fmt.Errorf("%w: callback without sender", ErrMalformedUpdate)
	}
	if wire.Message == nil || wire.Message.Chat == nil || wire.Message.Chat.ID == 0 {
		return nil, fmt.Errorf("%w: callback without origin chat", ErrMalformedUpdate)
	}

	return &Callback{
		ID:   wire.ID,
		Chat: convertChat(wire.Message.Chat),
		From: convertUser(wire.Sender),
		Data: wire.Data,
	}, nil
}

func convertChat(wire *telebot.Chat) Chat {
	return Chat{
		ID:   wire.ID,
		Type: ChatType(wire.Type),
	}
}

func convertUser(wire *telebot.User) User {
	return User{
		ID:        wire.ID,
		Username:  wire.Username,
		FirstName: wire.FirstName,
		LastName:  wire.LastName,
	}
}
