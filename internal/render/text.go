package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
)

// User-visible strings. The product copy is Turkish; keep it byte-identical
// across the bot so screenshots and logs stay consistent.
const (
	MainMenuText = "🤖 *NİKEL CHANGE OFİS*\n\nMerhaba! Kripto para fiyatlarını görmek veya dönüşüm yapmak için aşağıdaki menüyü kullanabilirsiniz."

	ConversionMenuText = "🔄 *Para Çevirici*\n\nLütfen yapmak istediğiniz dönüşüm işlemini seçin:"

	InvalidAmountText = "Geçersiz miktar. Lütfen sayısal bir değer girin."

	ConvertUsageText = "Doğru format: /convert [miktar] [kaynak para birimi] [hedef para birimi]\nÖrnek: /convert 100 TRY BTC"

	UnsupportedPairText = "Desteklenmeyen para birimi. Lütfen TRY ve desteklenen kripto paralar arasında dönüşüm yapın."

	ConversionFailedText = "Dönüşüm yapılırken bir hata oluştu. Lütfen daha sonra tekrar deneyin."

	PricesFailedText = "Fiyatlar alınırken bir hata oluştu. Lütfen daha sonra tekrar deneyin."

	HelpText = "Komutlar:\n/menu - Ana menüyü açar\n/convert [miktar] [kaynak] [hedef] - Dönüşüm yapar\nÖrnek: /convert 100 TRY BTC"

	priceListHeader    = "💰 *Güncel Kripto Para Fiyatları (TL)*\n\n"
	priceTimestampTemp = "02.01.2006 15:04:05"
)

var turkish = message.NewPrinter(language.Turkish)

// istanbul is the display timezone for price-list timestamps. Falls back to
// a fixed UTC+3 zone when the tz database is unavailable in the runtime image.
var istanbul = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		return time.FixedZone("TRT", 3*60*60)
	}
	return loc
}()

// FormatTRY renders a TRY amount with Turkish digit grouping.
func FormatTRY(value float64) string {
	return turkish.Sprint(number.Decimal(value, number.MaxFractionDigits(2)))
}

// FormatCrypto renders a coin amount with at most 8 fraction digits.
func FormatCrypto(value float64) string {
	return turkish.Sprint(number.Decimal(value, number.MaxFractionDigits(8)))
}

// PriceListText enumerates the supported coins in fixed order, omitting
// coins whose price is unavailable, and appends the generation timestamp.
func PriceListText(quotes convert.Quotes, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(priceListHeader)

	for _, coin := range currency.SupportedCoins {
		price, ok := quotes[coin]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "*%s*: %s ₺\n", coin, FormatTRY(price))
	}

	fmt.Fprintf(&b, "\n_Son güncelleme: %s_", generatedAt.In(istanbul).Format(priceTimestampTemp))

	return b.String()
}

// ConversionResultText formats a completed conversion. The TRY side carries
// locale grouping; the coin side is capped at 8 fraction digits.
func ConversionResultText(result convert.Result) string {
	if result.From == currency.TRY {
		return fmt.Sprintf("💱 *Dönüşüm Sonucu*\n\n%s ₺ = %s %s",
			FormatTRY(result.Amount), FormatCrypto(result.Value), result.To)
	}

	return fmt.Sprintf("💱 *Dönüşüm Sonucu*\n\n%s %s = %s ₺",
		FormatCrypto(result.Amount), result.From, FormatTRY(result.Value))
}

// AmountPromptText asks a private chat for the amount of the chosen pair.
func AmountPromptText(from, to currency.Code) string {
	if to == currency.TRY {
		return fmt.Sprintf("Lütfen TL'ye dönüştürmek istediğiniz %s miktarını girin:", from)
	}
	return fmt.Sprintf("Lütfen %s'a dönüştürmek istediğiniz TL miktarını girin:", to)
}

// GroupConversionHintText explains the /convert command form to group chats,
// which never get per-chat waiting state.
func GroupConversionHintText(from, to currency.Code) string {
	return fmt.Sprintf(
		"Lütfen dönüştürmek istediğiniz %s miktarını girin.\n\nÖrnek: /convert 100 %s %s",
		from, from, to,
	)
}
