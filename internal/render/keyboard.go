// Package render builds the bot's static navigation keyboards and formats
// every outbound message body. Keyboard structure is order-stable; the
// callback payloads it emits follow the grammar in callbacks.go.
package render

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/nikelchange/kurbot/internal/currency"
)

// MainMenuKeyboard builds the two-row main menu.
func MainMenuKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{Text: "💰 Güncel Fiyatlar", Data: CallbackPrices},
		},
		{
			{Text: "🔄 Para Çevirici", Data: CallbackConvertMenu},
		},
	}
	return markup
}

// ConversionMenuKeyboard builds one row per supported coin with both
// directions, plus a back-to-main-menu row.
func ConversionMenuKeyboard() *telebot.ReplyMarkup {
	rows := make([][]telebot.InlineButton, 0, len(currency.SupportedCoins)+1)

	for _, coin := range currency.SupportedCoins {
		rows = append(rows, []telebot.InlineButton{
			{
				Text: fmt.Sprintf("TRY → %s", coin),
				Data: ConvertFromTRYData(coin),
			},
			{
				Text: fmt.Sprintf("%s → TRY", coin),
				Data: ConvertToTRYData(coin),
			},
		})
	}

	rows = append(rows, backToMainMenuRow())

	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = rows
	return markup
}

// PriceListKeyboard builds the refresh plus back navigation under the price
// list.
func PriceListKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{Text: "🔄 Yenile", Data: CallbackPrices},
		},
		backToMainMenuRow(),
	}
	return markup
}

// ConversionResultKeyboard builds the follow-up navigation shown after a
// conversion in private chats. Groups get plain text, no keyboard.
func ConversionResultKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{Text: "🔄 Başka Bir Dönüşüm", Data: CallbackConvertMenu},
		},
		backToMainMenuRow(),
	}
	return markup
}

func backToMainMenuRow() []telebot.InlineButton {
	return []telebot.InlineButton{
		{Text: "⬅️ Ana Menü", Data: CallbackMainMenu},
	}
}
