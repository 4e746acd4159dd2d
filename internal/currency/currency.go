// Package currency defines the currency codes the bot trades in and the
// validity rules for conversion pairs.
package currency

import (
	"errors"
	"strings"
)

// Code is a short uppercase ticker for a currency known to the bot.
type Code string

const (
	// TRY is the fiat side of every supported conversion.
	TRY Code = "TRY"

	BTC  Code = "BTC"
	USDT Code = "USDT"
	TRX  Code = "TRX"
	XMR  Code = "XMR"
	DOGE Code = "DOGE"
)

// SupportedCoins lists the supported cryptocurrencies in display order.
// The order is part of the product surface: price lists and the conversion
// menu enumerate coins in exactly this sequence.
var SupportedCoins = []Code{BTC, USDT, TRX, XMR, DOGE}

// ErrUnsupportedPair indicates that a conversion pair is not TRY-to-coin or
// coin-to-TRY.
var ErrUnsupportedPair = errors.New("unsupported currency pair")

// Parse normalizes a raw ticker to a known Code. The boolean reports whether
// the ticker is known at all (TRY included).
func Parse(raw string) (Code, bool) {
	code := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if code == TRY || IsSupportedCoin(code) {
		return code, true
	}
	return "", false
}

// IsSupportedCoin reports whether code belongs to the supported coin set.
func IsSupportedCoin(code Code) bool {
	for _, coin := range SupportedCoins {
		if coin == code {
			return true
		}
	}
	return false
}

// ValidatePair enforces the pair invariant: exactly one side must be TRY and
// the other must be a supported coin. It returns the coin side of the pair.
// Both conversion entry points (pending-state amounts and the /convert
// command) share this single check.
func ValidatePair(from, to Code) (Code, error) {
	switch {
	case from == TRY && IsSupportedCoin(to):
		return to, nil
	case to == TRY && IsSupportedCoin(from):
		return from, nil
	default:
		return "", ErrUnsupportedPair
	}
}
