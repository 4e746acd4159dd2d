// Package pricing fetches current TRY exchange rates for the supported coins
// from the CoinGecko simple price API.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikelchange/kurbot/internal/convert"
	"github.com/nikelchange/kurbot/internal/currency"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	vsCurrency     = "try"
)

// coinIDs maps internal coin codes to CoinGecko asset identifiers.
var coinIDs = map[currency.Code]string{
	currency.BTC:  "bitcoin",
	currency.USDT: "tether",
	currency.TRX:  "tron",
	currency.XMR:  "monero",
	currency.DOGE: "dogecoin",
}

// QuoteSource provides TRY prices for a set of coins. Coins the source has
// no price for are absent from the returned map; that is not an error.
type QuoteSource interface {
	GetPrices(ctx context.Context, coins []currency.Code) (convert.Quotes, error)
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("pricing: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is a QuoteSource backed by the CoinGecko REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, primarily for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a CoinGecko client with sane timeouts.
func NewClient(log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetPrices issues one batched simple-price request for the given coins and
// maps the response back to internal codes. Unknown coins are skipped on the
// way out; coins missing from the response are simply absent from the result.
func (c *Client) GetPrices(ctx context.Context, coins []currency.Code) (convert.Quotes, error) {
	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		if id, ok := coinIDs[coin]; ok {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return convert.Quotes{}, nil
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")), vsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pricing: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing: fetch prices: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	// Response shape: {"bitcoin": {"try": 2000000.12}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("pricing: decode response: %w", err)
	}

	quotes := make(convert.Quotes, len(payload))
	for coin, id := range coinIDs {
		entry, ok := payload[id]
		if !ok {
			continue
		}
		if price, ok := entry[vsCurrency]; ok && price > 0 {
			quotes[coin] = price
		}
	}

	return quotes, nil
}
