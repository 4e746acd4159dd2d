package render

import (
	"strings"

	"github.com/nikelchange/kurbot/internal/currency"
)

// Callback payload grammar. These strings are the wire contract with
// Telegram inline buttons: whatever a button sends must be re-parsed
// identically by the dispatcher.
const (
	CallbackPrices      = "prices"
	CallbackConvertMenu = "convert_menu"
	CallbackMainMenu    = "main_menu"

	callbackToTRYPrefix   = "convert_to_try_"
	callbackFromTRYPrefix = "convert_from_try_"
)

// CallbackKind enumerates the recognized callback payload shapes.
type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackKindPrices
	CallbackKindConvertMenu
	CallbackKindMainMenu
	// CallbackKindConvertToTRY asks for a coin -> TRY conversion.
	CallbackKindConvertToTRY
	// CallbackKindConvertFromTRY asks for a TRY -> coin conversion.
	CallbackKindConvertFromTRY
)

// Callback is a parsed callback payload.
type Callback struct {
	Kind CallbackKind
	// Coin is set for the convert kinds only.
	Coin currency.Code
}

// ConvertToTRYData encodes the payload for a coin -> TRY button.
func ConvertToTRYData(coin currency.Code) string {
	return callbackToTRYPrefix + string(coin)
}

// ConvertFromTRYData encodes the payload for a TRY -> coin button.
func ConvertFromTRYData(coin currency.Code) string {
	return callbackFromTRYPrefix + string(coin)
}

// ParseCallback parses a raw payload against the fixed grammar. It fails
// closed: payloads outside the grammar, including convert payloads naming an
// unsupported coin, return ok=false.
func ParseCallback(data string) (Callback, bool) {
	switch data {
	case CallbackPrices:
		return Callback{Kind: CallbackKindPrices}, true
	case CallbackConvertMenu:
		return Callback{Kind: CallbackKindConvertMenu}, true
	case CallbackMainMenu:
		return Callback{Kind: CallbackKindMainMenu}, true
	}

	if raw, found := strings.CutPrefix(data, callbackToTRYPrefix); found {
		if coin, ok := currency.Parse(raw); ok && currency.IsSupportedCoin(coin) {
			return Callback{Kind: CallbackKindConvertToTRY, Coin: coin}, true
		}
		return Callback{}, false
	}

	if raw, found := strings.CutPrefix(data, callbackFromTRYPrefix); found {
		if coin, ok := currency.Parse(raw); ok && currency.IsSupportedCoin(coin) {
			return Callback{Kind: CallbackKindConvertFromTRY, Coin: coin}, true
		}
		return Callback{}, false
	}

	return Callback{}, false
}
