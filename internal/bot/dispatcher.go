// Package bot contains the update dispatcher: the state machine that turns
// an inbound Telegram update into outbound messages and conversions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/nikelchange/kurbot/internal/apperr"
	"github.com/nikelchange/kurbot/internal/audit"
	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
	"github.com/nikelchange/kurbot/internal/domain"
	"github.com/nikelchange/kurbot/internal/pricing"
	"github.com/nikelchange/kurbot/internal/render"
	"github.com/nikelchange/kurbot/internal/state"
	"github.com/nikelchange/kurbot/internal/telegram"
	"github.com/nikelchange/kurbot/pkg/metrics"
)

// Recognized commands. Matching is case-insensitive; the incoming text is
// lower-cased before comparison.
const (
	CommandStart   = "/start"
	CommandMenu    = "/menu"
	CommandHelp    = "/help"
	CommandConvert = "/convert"
)

const convertCommandTokens = 4

// Dispatcher routes each inbound update through the unconditional record
// stage, the per-chat waiting state, and the menu navigation graph.
type Dispatcher struct {
	sender   telegram.Sender
	quotes   pricing.QuoteSource
	states   state.Storage
	tracker  *state.Tracker
	recorder audit.Recorder
	errs     *apperr.Handler
	log      *slog.Logger
	now      func() time.Time
}

// NewDispatcher wires the dispatcher dependencies.
func NewDispatcher(
	sender telegram.Sender,
	quotes pricing.QuoteSource,
	states state.Storage,
	tracker *state.Tracker,
	recorder audit.Recorder,
	errs *apperr.Handler,
	log *slog.Logger,
) *Dispatcher {
	if tracker == nil {
		tracker = state.NewTracker()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		sender:   sender,
		quotes:   quotes,
		states:   states,
		tracker:  tracker,
		recorder: recorder,
		errs:     errs,
		log:      log,
		now:      time.Now,
	}
}

// HandleUpdate is the single entry point for inbound updates. Updates that
// carry neither a message nor a callback are a no-op.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	switch {
	case update == nil:
		return nil
	case update.Message != nil:
		return d.handleMessage(ctx, update.Message)
	case update.Callback != nil:
		return d.handleCallback(ctx, update.Callback)
	default:
		return nil
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	text := strings.ToLower(msg.Text)
	isGroup := msg.Chat.IsGroup()

	// Record stage. Runs before any branching and regardless of what the
	// branches do afterwards.
	messageType := domain.MessageTypeText
	if strings.HasPrefix(text, "/") {
		messageType = domain.MessageTypeCommand
	}
	d.recorder.RecordInbound(ctx,
		profileOf(msg.From),
		&domain.Message{
			TelegramID: msg.From.ID,
			Username:   msg.From.Username,
			Text:       msg.Text,
			Type:       messageType,
		},
		domain.ActionMessageReceived,
		fmt.Sprintf("Mesaj: %s", msg.Text),
	)

	// Pending-conversion branch. The whole read-act-clear sequence is one
	// critical section per chat.
	handled := false
	err := d.tracker.Do(chatID, func() error {
		pending, err := d.pendingFor(ctx, chatID)
		if pending == nil {
			return err
		}

		handled = true
		return d.consumePending(ctx, chatID, msg.From.ID, text, pending)
	})
	if err != nil || handled {
		return err
	}

	if isGroup {
		// Groups only ever react to /convert; everything else is silently
		// ignored and never receives the menu.
		if strings.HasPrefix(text, CommandConvert) {
			return d.handleConvertCommand(ctx, chatID, msg.From.ID, text, false)
		}
		return nil
	}

	switch {
	case text == CommandStart || text == CommandMenu:
		return d.sendMainMenu(ctx, chatID, msg.From.ID)
	case text == CommandHelp:
		return d.send(ctx, chatID, render.HelpText, nil)
	case strings.HasPrefix(text, CommandConvert):
		return d.handleConvertCommand(ctx, chatID, msg.From.ID, text, true)
	default:
		// Unrecognized private text is ignored.
		return nil
	}
}

// pendingFor loads the chat's waiting state. A state-storage failure is a
// collaborator failure: it is logged and the turn proceeds as if no state
// existed, so the conversational path never stalls on it.
func (d *Dispatcher) pendingFor(ctx context.Context, chatID int64) (*state.PendingConversion, error) {
	pending, err := d.states.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			d.log.Error("failed to load pending conversion",
				slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		return nil, nil
	}

	return pending, nil
}

// consumePending interprets the message as the awaited amount. A parse
// failure keeps the state so the user can try again; a parsed amount
// consumes the state no matter how the conversion itself ends.
func (d *Dispatcher) consumePending(ctx context.Context, chatID, telegramID int64, text string, pending *state.PendingConversion) error {
	amount, parseErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if parseErr != nil {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Geçersiz miktar: %s", text))
		metrics.RecordConversion(directionOf(pending.From), "invalid_input")
		return d.send(ctx, chatID, render.InvalidAmountText, nil)
	}

	if err := d.states.Clear(ctx, chatID); err != nil {
		d.log.Error("failed to clear pending conversion",
			slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	metrics.PendingConversionFinished()

	return d.performConversion(ctx, chatID, telegramID, amount, pending.From, pending.To, true)
}

func (d *Dispatcher) handleConvertCommand(ctx context.Context, chatID, telegramID int64, text string, private bool) error {
	parts := strings.Fields(text)
	if len(parts) != convertCommandTokens {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Hatalı komut: %s", text))
		return d.send(ctx, chatID, render.ConvertUsageText, nil)
	}

	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Geçersiz miktar: %s", parts[1]))
		return d.send(ctx, chatID, render.InvalidAmountText, nil)
	}

	from, fromOK := currency.Parse(parts[2])
	to, toOK := currency.Parse(parts[3])
	if !fromOK || !toOK {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Desteklenmeyen çift: %s -> %s", strings.ToUpper(parts[2]), strings.ToUpper(parts[3])))
		metrics.RecordConversion("unknown", "invalid_input")
		return d.send(ctx, chatID, render.UnsupportedPairText, nil)
	}

	return d.performConversion(ctx, chatID, telegramID, amount, from, to, private)
}

// performConversion validates the pair, fetches the quote, and reports the
// result. Input errors are user-visible only; quote or send failures become
// the generic retry-later message.
func (d *Dispatcher) performConversion(ctx context.Context, chatID, telegramID int64, amount float64, from, to currency.Code, private bool) error {
	coin, err := currency.ValidatePair(from, to)
	if err != nil {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Desteklenmeyen çift: %s -> %s", from, to))
		metrics.RecordConversion(directionOf(from), "invalid_input")
		return d.send(ctx, chatID, render.UnsupportedPairText, nil)
	}

	quotes, err := d.quotes.GetPrices(ctx, []currency.Code{coin})
	if err != nil {
		metrics.RecordQuoteRequest("error")
		d.errs.Handle(ctx, apperr.NewQuoteError(err))
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Fiyat alınamadı: %s", coin))
		metrics.RecordConversion(directionOf(from), "error")
		return d.send(ctx, chatID, render.ConversionFailedText, nil)
	}
	metrics.RecordQuoteRequest("ok")

	result, err := convert.Convert(amount, from, to, quotes)
	if err != nil {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError,
			fmt.Sprintf("Dönüşüm başarısız: %v", err))
		metrics.RecordConversion(directionOf(from), "error")
		if errors.Is(err, currency.ErrUnsupportedPair) {
			return d.send(ctx, chatID, render.UnsupportedPairText, nil)
		}
		return d.send(ctx, chatID, render.ConversionFailedText, nil)
	}

	var markup = render.ConversionResultKeyboard()
	if !private {
		// Groups get the plain result, no navigation buttons.
		markup = nil
	}

	if err := d.send(ctx, chatID, render.ConversionResultText(result), markup); err != nil {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionError, "Sonuç gönderilemedi")
		metrics.RecordConversion(directionOf(from), "error")
		return nil
	}

	d.recorder.Record(ctx, telegramID, domain.ActionConversionCompleted,
		fmt.Sprintf("%s %s = %s %s",
			render.FormatCrypto(result.Amount), from, render.FormatCrypto(result.Value), to))
	metrics.RecordConversion(directionOf(from), "ok")

	return nil
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *telegram.Callback) error {
	chatID := cb.Chat.ID
	isPrivate := cb.Chat.IsPrivate()

	// The transport acknowledgment must run last and unconditionally, so the
	// origin button always sheds its loading indicator.
	defer func() {
		if err := d.sender.AnswerCallback(ctx, cb.ID); err != nil {
			d.log.Warn("failed to answer callback",
				slog.String("callback_id", cb.ID), slog.Any("error", err))
		}
	}()

	// Record stage, unconditional.
	d.recorder.RecordInbound(ctx,
		profileOf(cb.From),
		&domain.Message{
			TelegramID: cb.From.ID,
			Username:   cb.From.Username,
			Text:       cb.Data,
			Type:       domain.MessageTypeCallback,
		},
		domain.ActionCallbackReceived,
		fmt.Sprintf("Callback: %s", cb.Data),
	)

	parsed, ok := render.ParseCallback(cb.Data)
	if !ok {
		d.log.Info("unrecognized callback payload",
			slog.Int64("chat_id", chatID), slog.String("data", cb.Data))
		return nil
	}

	switch parsed.Kind {
	case render.CallbackKindPrices:
		return d.sendPriceList(ctx, chatID, cb.From.ID)
	case render.CallbackKindConvertMenu:
		d.recorder.Record(ctx, cb.From.ID, domain.ActionConvertMenuOpened, "")
		return d.send(ctx, chatID, render.ConversionMenuText, render.ConversionMenuKeyboard())
	case render.CallbackKindMainMenu:
		return d.sendMainMenu(ctx, chatID, cb.From.ID)
	case render.CallbackKindConvertToTRY:
		return d.startConversion(ctx, chatID, cb.From.ID, parsed.Coin, currency.TRY, isPrivate)
	case render.CallbackKindConvertFromTRY:
		return d.startConversion(ctx, chatID, cb.From.ID, currency.TRY, parsed.Coin, isPrivate)
	default:
		return nil
	}
}

// startConversion arms the per-chat waiting state in private chats. Groups
// never get waiting state; they get the /convert usage hint instead.
func (d *Dispatcher) startConversion(ctx context.Context, chatID, telegramID int64, from, to currency.Code, isPrivate bool) error {
	if !isPrivate {
		d.recorder.Record(ctx, telegramID, domain.ActionConversionPrompt,
			fmt.Sprintf("%s -> %s", from, to))
		return d.send(ctx, chatID, render.GroupConversionHintText(from, to), nil)
	}

	err := d.tracker.Do(chatID, func() error {
		return d.states.Set(ctx, chatID, &state.PendingConversion{From: from, To: to})
	})
	if err != nil {
		d.errs.Handle(ctx, apperr.NewStorageError(err))
		return d.send(ctx, chatID, render.ConversionFailedText, nil)
	}

	metrics.PendingConversionStarted()
	d.recorder.Record(ctx, telegramID, domain.ActionConversionStarted,
		fmt.Sprintf("%s -> %s", from, to))

	return d.send(ctx, chatID, render.AmountPromptText(from, to), nil)
}

func (d *Dispatcher) sendMainMenu(ctx context.Context, chatID, telegramID int64) error {
	d.recorder.Record(ctx, telegramID, domain.ActionMenuOpened, "")
	return d.send(ctx, chatID, render.MainMenuText, render.MainMenuKeyboard())
}

func (d *Dispatcher) sendPriceList(ctx context.Context, chatID, telegramID int64) error {
	quotes, err := d.quotes.GetPrices(ctx, currency.SupportedCoins)
	if err != nil {
		metrics.RecordQuoteRequest("error")
		d.errs.Handle(ctx, apperr.NewQuoteError(err))
		return d.send(ctx, chatID, render.PricesFailedText, nil)
	}
	metrics.RecordQuoteRequest("ok")

	d.recorder.Record(ctx, telegramID, domain.ActionPricesViewed, "")

	return d.send(ctx, chatID, render.PriceListText(quotes, d.now()), render.PriceListKeyboard())
}

// send delivers one outbound message. Delivery failures are dependency
// errors: logged and reported, never escalated to the webhook boundary.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup *telebot.ReplyMarkup) error {
	if err := d.sender.SendMessage(ctx, chatID, text, markup); err != nil {
		d.errs.Handle(ctx, apperr.NewSendError(err))
	}

	return nil
}

func profileOf(user telegram.User) *domain.User {
	return &domain.User{
		TelegramID: user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
	}
}

func directionOf(from currency.Code) string {
	if from == currency.TRY {
		return "try_to_coin"
	}
	return "coin_to_try"
}
