package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/nikelchange/kurbot/internal/apperr"
	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
	"github.com/nikelchange/kurbot/internal/domain"
	"github.com/nikelchange/kurbot/internal/render"
	"github.com/nikelchange/kurbot/internal/state"
	"github.com/nikelchange/kurbot/internal/telegram"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Markup *telebot.ReplyMarkup
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	answered []string
	sendErr  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string, markup *telebot.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (f *fakeSender) AnswerCallback(_ context.Context, callbackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeSender) lastSent(t *testing.T) sentMessage {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeQuoteSource struct {
	quotes convert.Quotes
	err    error
	calls  int
}

func (f *fakeQuoteSource) GetPrices(context.Context, []currency.Code) (convert.Quotes, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

type recordedActivity struct {
	TelegramID int64
	Action     string
	Details    string
}

type fakeRecorder struct {
	mu         sync.Mutex
	users      []*domain.User
	messages   []*domain.Message
	activities []recordedActivity
}

func (f *fakeRecorder) RecordInbound(ctx context.Context, user *domain.User, message *domain.Message, action, details string) {
	f.mu.Lock()
	f.users = append(f.users, user)
	f.messages = append(f.messages, message)
	f.mu.Unlock()

	f.Record(ctx, user.TelegramID, action, details)
}

func (f *fakeRecorder) Record(_ context.Context, telegramID int64, action, details string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.activities = append(f.activities, recordedActivity{
		TelegramID: telegramID,
		Action:     action,
		Details:    details,
	})
}

func (f *fakeRecorder) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	actions := make([]string, 0, len(f.activities))
	for _, activity := range f.activities {
		actions = append(actions, activity.Action)
	}
	return actions
}

type fixture struct {
	dispatcher *Dispatcher
	sender     *fakeSender
	quotes     *fakeQuoteSource
	recorder   *fakeRecorder
	states     *state.MemoryStorage
}

func newFixture(quotes convert.Quotes) *fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sender := &fakeSender{}
	source := &fakeQuoteSource{quotes: quotes}
	recorder := &fakeRecorder{}
	states := state.NewMemoryStorage(time.Hour)

	dispatcher := NewDispatcher(
		sender,
		source,
		states,
		state.NewTracker(),
		recorder,
		apperr.NewHandler(log, false),
		log,
	)

	return &fixture{
		dispatcher: dispatcher,
		sender:     sender,
		quotes:     source,
		recorder:   recorder,
		states:     states,
	}
}

func privateMessage(chatID int64, text string) *telegram.Update {
	return &telegram.Update{
		Message: &telegram.Message{
			ID:   1,
			Chat: telegram.Chat{ID: chatID, Type: telegram.ChatPrivate},
			From: telegram.User{ID: chatID, Username: "ali", FirstName: "Ali"},
			Text: text,
		},
	}
}

func groupMessage(chatID int64, text string) *telegram.Update {
	return &telegram.Update{
		Message: &telegram.Message{
			ID:   2,
			Chat: telegram.Chat{ID: chatID, Type: telegram.ChatGroup},
			From: telegram.User{ID: 99, Username: "ali"},
			Text: text,
		},
	}
}

func callbackUpdate(chatID int64, chatType telegram.ChatType, data string) *telegram.Update {
	return &telegram.Update{
		Callback: &telegram.Callback{
			ID:   "cb-1",
			Chat: telegram.Chat{ID: chatID, Type: chatType},
			From: telegram.User{ID: 99, Username: "ali"},
			Data: data,
		},
	}
}

func TestHandleUpdateEmptyIsNoop(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), nil))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), &telegram.Update{}))

	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.recorder.activities)
}

func TestStartCommandSendsMainMenu(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/start")))

	sent := f.sender.lastSent(t)
	assert.Equal(t, render.MainMenuText, sent.Text)
	require.NotNil(t, sent.Markup)
	assert.Len(t, sent.Markup.InlineKeyboard, 2)

	assert.Equal(t,
		[]string{domain.ActionMessageReceived, domain.ActionMenuOpened},
		f.recorder.actions())

	require.Len(t, f.recorder.messages, 1)
	assert.Equal(t, domain.MessageTypeCommand, f.recorder.messages[0].Type)
}

func TestMenuCommandIsCaseInsensitive(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/MENU")))

	assert.Equal(t, render.MainMenuText, f.sender.lastSent(t).Text)
}

func TestHelpCommand(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/help")))

	assert.Equal(t, render.HelpText, f.sender.lastSent(t).Text)
}

func TestUnrecognizedPrivateTextIsRecordedButIgnored(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "merhaba")))

	assert.Empty(t, f.sender.sent)
	assert.Equal(t, []string{domain.ActionMessageReceived}, f.recorder.actions())

	require.Len(t, f.recorder.messages, 1)
	assert.Equal(t, domain.MessageTypeText, f.recorder.messages[0].Type)
}

func TestGroupIgnoresEverythingButConvert(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), groupMessage(-100, "/start")))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), groupMessage(-100, "merhaba")))

	assert.Empty(t, f.sender.sent)
	// The record stage still ran for both updates.
	assert.Len(t, f.recorder.messages, 2)
}

func TestConvertButtonArmsPendingState(t *testing.T) {
	f := newFixture(nil)

	update := callbackUpdate(10, telegram.ChatPrivate, render.ConvertFromTRYData(currency.BTC))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	pending, err := f.states.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, currency.TRY, pending.From)
	assert.Equal(t, currency.BTC, pending.To)

	sent := f.sender.lastSent(t)
	assert.Equal(t, render.AmountPromptText(currency.TRY, currency.BTC), sent.Text)

	assert.Equal(t, []string{"cb-1"}, f.sender.answered)
	assert.Contains(t, f.recorder.actions(), domain.ActionConversionStarted)
}

func TestPendingStateConsumedByAmount(t *testing.T) {
	f := newFixture(convert.Quotes{currency.BTC: 2_000_000})

	arm := callbackUpdate(10, telegram.ChatPrivate, render.ConvertFromTRYData(currency.BTC))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), arm))

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "100")))

	sent := f.sender.lastSent(t)
	assert.Contains(t, sent.Text, "100 ₺ = 0,00005 BTC")
	require.NotNil(t, sent.Markup)

	_, err := f.states.Get(context.Background(), 10)
	assert.ErrorIs(t, err, state.ErrNotFound)

	assert.Contains(t, f.recorder.actions(), domain.ActionConversionCompleted)
}

func TestPendingStateSurvivesInvalidAmount(t *testing.T) {
	f := newFixture(convert.Quotes{currency.BTC: 2_000_000})

	arm := callbackUpdate(10, telegram.ChatPrivate, render.ConvertFromTRYData(currency.BTC))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), arm))

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "yüz lira")))

	assert.Equal(t, render.InvalidAmountText, f.sender.lastSent(t).Text)
	assert.Contains(t, f.recorder.actions(), domain.ActionConversionError)

	// The state stays armed for a second attempt.
	pending, err := f.states.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, currency.BTC, pending.To)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "50")))
	assert.Contains(t, f.sender.lastSent(t).Text, "50 ₺ = 0,000025 BTC")
}

func TestPendingStateConsumedEvenWhenQuoteFails(t *testing.T) {
	f := newFixture(nil)
	f.quotes.err = errors.New("upstream down")

	arm := callbackUpdate(10, telegram.ChatPrivate, render.ConvertFromTRYData(currency.BTC))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), arm))

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "100")))

	assert.Equal(t, render.ConversionFailedText, f.sender.lastSent(t).Text)
	assert.Contains(t, f.recorder.actions(), domain.ActionConversionError)

	// A parsed amount consumes the state no matter how the conversion ends.
	_, err := f.states.Get(context.Background(), 10)
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestPendingAmountBypassesCommandHandling(t *testing.T) {
	f := newFixture(convert.Quotes{currency.BTC: 2_000_000})

	arm := callbackUpdate(10, telegram.ChatPrivate, render.ConvertFromTRYData(currency.BTC))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), arm))

	// A command while waiting is an invalid amount, not a menu request.
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/menu")))
	assert.Equal(t, render.InvalidAmountText, f.sender.lastSent(t).Text)
}

func TestGroupConvertButtonSendsHintWithoutState(t *testing.T) {
	f := newFixture(nil)

	update := callbackUpdate(-100, telegram.ChatGroup, render.ConvertToTRYData(currency.DOGE))
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	sent := f.sender.lastSent(t)
	assert.Equal(t, render.GroupConversionHintText(currency.DOGE, currency.TRY), sent.Text)
	assert.Nil(t, sent.Markup)

	_, err := f.states.Get(context.Background(), -100)
	assert.ErrorIs(t, err, state.ErrNotFound)

	assert.Contains(t, f.recorder.actions(), domain.ActionConversionPrompt)
}

func TestConvertCommandFullForm(t *testing.T) {
	f := newFixture(convert.Quotes{currency.DOGE: 4.5})

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), groupMessage(-100, "/convert 200 doge try")))

	sent := f.sender.lastSent(t)
	assert.Contains(t, sent.Text, "200 DOGE = 900 ₺")
	assert.Nil(t, sent.Markup)
}

func TestConvertCommandPrivateGetsKeyboard(t *testing.T) {
	f := newFixture(convert.Quotes{currency.DOGE: 4.5})

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/convert 200 DOGE TRY")))

	sent := f.sender.lastSent(t)
	assert.Contains(t, sent.Text, "900 ₺")
	assert.NotNil(t, sent.Markup)
}

func TestConvertCommandWrongTokenCount(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/convert 100 TRY")))

	assert.Equal(t, render.ConvertUsageText, f.sender.lastSent(t).Text)
	assert.Contains(t, f.recorder.actions(), domain.ActionConversionError)
}

func TestConvertCommandInvalidAmount(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/convert abc TRY BTC")))

	assert.Equal(t, render.InvalidAmountText, f.sender.lastSent(t).Text)
}

func TestConvertCommandUnsupportedPair(t *testing.T) {
	f := newFixture(nil)

	tests := []string{
		"/convert 100 BTC DOGE",
		"/convert 100 TRY TRY",
		"/convert 100 TRY ETH",
	}

	for _, text := range tests {
		require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, text)))
		assert.Equal(t, render.UnsupportedPairText, f.sender.lastSent(t).Text, text)
	}

	// No quote request is issued for invalid pairs.
	assert.Zero(t, f.quotes.calls)
}

func TestConvertCommandPriceUnavailable(t *testing.T) {
	f := newFixture(convert.Quotes{})

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/convert 100 TRY BTC")))

	assert.Equal(t, render.ConversionFailedText, f.sender.lastSent(t).Text)
	assert.Contains(t, f.recorder.actions(), domain.ActionConversionError)
}

func TestPricesCallback(t *testing.T) {
	f := newFixture(convert.Quotes{currency.BTC: 2_000_000, currency.DOGE: 4.5})

	update := callbackUpdate(10, telegram.ChatPrivate, render.CallbackPrices)
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	sent := f.sender.lastSent(t)
	assert.Contains(t, sent.Text, "Güncel Kripto Para Fiyatları")
	assert.Contains(t, sent.Text, "*BTC*: 2.000.000 ₺")
	require.NotNil(t, sent.Markup)

	assert.Equal(t, []string{"cb-1"}, f.sender.answered)
	assert.Contains(t, f.recorder.actions(), domain.ActionPricesViewed)
}

func TestPricesCallbackQuoteFailure(t *testing.T) {
	f := newFixture(nil)
	f.quotes.err = errors.New("upstream down")

	update := callbackUpdate(10, telegram.ChatPrivate, render.CallbackPrices)
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	assert.Equal(t, render.PricesFailedText, f.sender.lastSent(t).Text)
	assert.NotContains(t, f.recorder.actions(), domain.ActionPricesViewed)
	// The callback is still acknowledged.
	assert.Equal(t, []string{"cb-1"}, f.sender.answered)
}

func TestConvertMenuCallback(t *testing.T) {
	f := newFixture(nil)

	update := callbackUpdate(10, telegram.ChatPrivate, render.CallbackConvertMenu)
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	sent := f.sender.lastSent(t)
	assert.Equal(t, render.ConversionMenuText, sent.Text)
	require.NotNil(t, sent.Markup)
	assert.Len(t, sent.Markup.InlineKeyboard, len(currency.SupportedCoins)+1)
	assert.Contains(t, f.recorder.actions(), domain.ActionConvertMenuOpened)
}

func TestMainMenuCallback(t *testing.T) {
	f := newFixture(nil)

	update := callbackUpdate(10, telegram.ChatPrivate, render.CallbackMainMenu)
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	assert.Equal(t, render.MainMenuText, f.sender.lastSent(t).Text)
	assert.Contains(t, f.recorder.actions(), domain.ActionMenuOpened)
}

func TestUnknownCallbackIsRecordedAndAnswered(t *testing.T) {
	f := newFixture(nil)

	update := callbackUpdate(10, telegram.ChatPrivate, "convert_to_try_ETH")
	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), update))

	assert.Empty(t, f.sender.sent)
	assert.Equal(t, []string{"cb-1"}, f.sender.answered)
	assert.Equal(t, []string{domain.ActionCallbackReceived}, f.recorder.actions())
}

func TestSendFailureDoesNotEscalate(t *testing.T) {
	f := newFixture(nil)
	f.sender.sendErr = errors.New("telegram down")

	require.NoError(t, f.dispatcher.HandleUpdate(context.Background(), privateMessage(10, "/start")))
}
