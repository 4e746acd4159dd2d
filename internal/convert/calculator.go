// Package convert implements the pure conversion arithmetic between TRY and
// the supported coins.
package convert

import (
	"errors"
	"fmt"

	"github.com/nikelchange/kurbot/internal/currency"
)

// ErrPriceUnavailable indicates that the quote map carries no price for the
// coin side of a conversion.
var ErrPriceUnavailable = errors.New("price unavailable")

// Quotes maps a coin code to its current TRY price.
type Quotes map[currency.Code]float64

// Result describes a completed conversion.
type Result struct {
	Amount float64
	From   currency.Code
	To     currency.Code
	Value  float64
	// Price is the TRY price of the coin side used for the computation.
	Price float64
}

// Convert computes amount expressed in `from` as a value in `to` using the
// supplied quotes. Exactly one side must be TRY; the prices of coins are
// quoted in TRY, so TRY->coin divides and coin->TRY multiplies.
func Convert(amount float64, from, to currency.Code, quotes Quotes) (Result, error) {
	coin, err := currency.ValidatePair(from, to)
	if err != nil {
		return Result{}, err
	}

	price, ok := quotes[coin]
	if !ok || price == 0 {
		return Result{}, fmt.Errorf("%s: %w", coin, ErrPriceUnavailable)
	}

	value := amount * price
	if from == currency.TRY {
		value = amount / price
	}

	return Result{
		Amount: amount,
		From:   from,
		To:     to,
		Value:  value,
		Price:  price,
	}, nil
}
