package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Code
		ok    bool
	}{
		{name: "uppercase coin", input: "BTC", want: BTC, ok: true},
		{name: "lowercase coin", input: "doge", want: DOGE, ok: true},
		{name: "mixed case", input: "UsDt", want: USDT, ok: true},
		{name: "fiat side", input: "try", want: TRY, ok: true},
		{name: "surrounding whitespace", input: "  xmr  ", want: XMR, ok: true},
		{name: "unknown ticker", input: "ETH", want: "", ok: false},
		{name: "empty", input: "", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSupportedCoin(t *testing.T) {
	for _, coin := range SupportedCoins {
		assert.True(t, IsSupportedCoin(coin), string(coin))
	}

	assert.False(t, IsSupportedCoin(TRY))
	assert.False(t, IsSupportedCoin(Code("ETH")))
}

func TestValidatePair(t *testing.T) {
	t.Run("try to coin returns the coin side", func(t *testing.T) {
		coin, err := ValidatePair(TRY, BTC)
		require.NoError(t, err)
		assert.Equal(t, BTC, coin)
	})

	t.Run("coin to try returns the coin side", func(t *testing.T) {
		coin, err := ValidatePair(XMR, TRY)
		require.NoError(t, err)
		assert.Equal(t, XMR, coin)
	})

	t.Run("coin to coin is rejected", func(t *testing.T) {
		_, err := ValidatePair(BTC, DOGE)
		assert.ErrorIs(t, err, ErrUnsupportedPair)
	})

	t.Run("try to try is rejected", func(t *testing.T) {
		_, err := ValidatePair(TRY, TRY)
		assert.ErrorIs(t, err, ErrUnsupportedPair)
	})

	t.Run("unknown code is rejected", func(t *testing.T) {
		_, err := ValidatePair(TRY, Code("ETH"))
		assert.ErrorIs(t, err, ErrUnsupportedPair)
	})
}
