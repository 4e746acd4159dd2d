package telegram

import (
	"context"
	"fmt"
	"net/http"

	telebot "gopkg.in/telebot.v3"
)

// Sender delivers outbound messages and callback acknowledgments. A non-2xx
// Bot API response surfaces as an error.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telebot.ReplyMarkup) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// BotSender implements Sender over a telebot API client. The bot runs
// without a poller; inbound traffic arrives through the webhook server.
type BotSender struct {
	bot *telebot.Bot
}

// NewBotSender initializes the telebot client. Offline skips the initial
// getMe round-trip, for tests and dry runs.
func NewBotSender(token string, client *http.Client, offline bool) (*BotSender, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Client:  client,
		Offline: offline,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return &BotSender{bot: bot}, nil
}

// SendMessage posts a Markdown message, with an inline keyboard when markup
// is non-nil.
func (s *BotSender) SendMessage(_ context.Context, chatID int64, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	if _, err := s.bot.Send(&telebot.Chat{ID: chatID}, text, opts); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}

	return nil
}

// AnswerCallback acknowledges an inline-button press so the client clears
// its loading indicator.
func (s *BotSender) AnswerCallback(_ context.Context, callbackID string) error {
	if err := s.bot.Respond(&telebot.Callback{ID: callbackID}, &telebot.CallbackResponse{}); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}

	return nil
}

// Bot exposes the underlying telebot instance for health checks.
func (s *BotSender) Bot() *telebot.Bot {
	return s.bot
}
