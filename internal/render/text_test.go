package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
)

func TestFormatTRY(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{value: 2_000_000, want: "2.000.000"},
		{value: 1234.5, want: "1.234,5"},
		{value: 1234.56, want: "1.234,56"},
		{value: 42, want: "42"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTRY(tt.value))
	}
}

func TestFormatCrypto(t *testing.T) {
	assert.Equal(t, "0,00005", FormatCrypto(0.00005))
	assert.Equal(t, "1,5", FormatCrypto(1.5))
}

func TestPriceListText(t *testing.T) {
	quotes := convert.Quotes{
		currency.BTC:  2_000_000,
		currency.DOGE: 4.5,
	}
	generatedAt := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	text := PriceListText(quotes, generatedAt)

	assert.True(t, strings.HasPrefix(text, "💰 *Güncel Kripto Para Fiyatları (TL)*"))
	assert.Contains(t, text, "*BTC*: 2.000.000 ₺")
	assert.Contains(t, text, "*DOGE*: 4,5 ₺")
	assert.NotContains(t, text, "USDT")
	assert.NotContains(t, text, "XMR")

	// BTC is first in the supported order.
	assert.Less(t, strings.Index(text, "BTC"), strings.Index(text, "DOGE"))

	// UTC 09:30 renders as 12:30 Istanbul time.
	assert.Contains(t, text, "_Son güncelleme: 15.03.2026 12:30:00_")
}

func TestConversionResultTextTRYToCoin(t *testing.T) {
	result := convert.Result{
		Amount: 100,
		From:   currency.TRY,
		To:     currency.BTC,
		Value:  0.00005,
		Price:  2_000_000,
	}

	text := ConversionResultText(result)

	assert.Contains(t, text, "💱 *Dönüşüm Sonucu*")
	assert.Contains(t, text, "100 ₺ = 0,00005 BTC")
}

func TestConversionResultTextCoinToTRY(t *testing.T) {
	result := convert.Result{
		Amount: 2,
		From:   currency.XMR,
		To:     currency.TRY,
		Value:  10_500.5,
		Price:  5_250.25,
	}

	text := ConversionResultText(result)

	assert.Contains(t, text, "2 XMR = 10.500,5 ₺")
}

func TestAmountPromptText(t *testing.T) {
	assert.Equal(t,
		"Lütfen TL'ye dönüştürmek istediğiniz BTC miktarını girin:",
		AmountPromptText(currency.BTC, currency.TRY))

	assert.Equal(t,
		"Lütfen DOGE'a dönüştürmek istediğiniz TL miktarını girin:",
		AmountPromptText(currency.TRY, currency.DOGE))
}

func TestGroupConversionHintText(t *testing.T) {
	text := GroupConversionHintText(currency.TRY, currency.BTC)

	assert.Contains(t, text, "TRY miktarını girin")
	assert.Contains(t, text, "/convert 100 TRY BTC")
}
