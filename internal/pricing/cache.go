package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
)

const defaultQuoteTTL = 60 * time.Second

// CachedSource decorates a QuoteSource with a short-lived Redis cache.
// Quote freshness is bounded by the TTL; cache failures fall through to the
// live source so pricing never degrades below the upstream API itself.
type CachedSource struct {
	source QuoteSource
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewCachedSource wraps source with a Redis quote cache.
func NewCachedSource(source QuoteSource, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = defaultQuoteTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &CachedSource{
		source: source,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// GetPrices returns cached quotes when the cached entry covers every
// requested coin that the upstream knows about; otherwise it refreshes from
// the live source and stores the result.
func (c *CachedSource) GetPrices(ctx context.Context, coins []currency.Code) (convert.Quotes, error) {
	key := quoteCacheKey(coins)

	if cached, err := c.lookup(ctx, key); err != nil {
		c.log.Warn("quote cache lookup failed", slog.String("key", key), slog.Any("error", err))
	} else if cached != nil {
		return cached, nil
	}

	quotes, err := c.source.GetPrices(ctx, coins)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, quotes); err != nil {
		c.log.Warn("quote cache store failed", slog.String("key", key), slog.Any("error", err))
	}

	return quotes, nil
}

func (c *CachedSource) lookup(ctx context.Context, key string) (convert.Quotes, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var quotes convert.Quotes
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("decode cached quotes: %w", err)
	}

	return quotes, nil
}

func (c *CachedSource) store(ctx context.Context, key string, quotes convert.Quotes) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("encode quotes: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func quoteCacheKey(coins []currency.Code) string {
	tickers := make([]string, 0, len(coins))
	for _, coin := range coins {
		tickers = append(tickers, string(coin))
	}
	sort.Strings(tickers)

	return "quotes:try:" + strings.Join(tickers, ",")
}
