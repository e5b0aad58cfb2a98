// Package bybit adapts the Bybit v5 market-data API to the exchange provider
// interface. The adapter is read-only: candles, tickers and order books only.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hoanglm/trading-core/pkg/types"
)

// Config holds connection settings. Market-data endpoints work without keys;
// they are accepted for account-scoped rate limits.
type Config struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
	Category  string `yaml:"category" default:"linear"`
	// RequestsPerSecond caps outbound calls; Bybit's public limit is 10/s.
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{Category: "linear", RequestsPerSecond: 5}
}

// intervalCodes maps short interval notation to Bybit's kline interval codes.
var intervalCodes = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W",
}

// Client is a rate-limited Bybit market-data client.
type Client struct {
	httpClient *bybit_api.Client
	category   string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := bybit_api.MAINNET
	if cfg.Testnet {
		baseURL = bybit_api.TESTNET
	}
	if cfg.Category == "" {
		cfg.Category = "linear"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: bybit_api.NewBybitHttpClient(cfg.APIKey, cfg.APISecret, bybit_api.WithBaseURL(baseURL)),
		category:   cfg.Category,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		log:        log.With().Str("component", "bybit").Logger(),
	}
}

// Candles fetches the most recent klines for symbol, oldest first. Bybit
// returns newest first and includes the still-forming bar; the forming bar is
// dropped so callers only ever see closed candles.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"interval": code,
		// One extra row covers the forming bar we drop below.
		"limit": limit + 1,
	}
	resp, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("get klines: %w", err)
	}

	var result struct {
		List [][]string `json:"list"`
	}
	if err := decodeResult(resp, &result); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	candles := make([]types.Candle, 0, len(result.List))
	for _, row := range result.List {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, types.Candle{
			OpenTime: time.UnixMilli(parseInt(row[0])).UTC(),
			Open:     parseFloat(row[1]),
			High:     parseFloat(row[2]),
			Low:      parseFloat(row[3]),
			Close:    parseFloat(row[4]),
			Volume:   parseFloat(row[5]),
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	if len(candles) > 0 {
		candles = candles[:len(candles)-1] // drop the forming bar
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// OrderBook fetches a depth snapshot for symbol.
func (c *Client) OrderBook(ctx context.Context, symbol string, depth int) (*types.OrderBookSnapshot, error) {
	if depth <= 0 {
		depth = 25
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"limit":    depth,
	}
	resp, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get order book: %w", err)
	}

	var result struct {
		Bids      [][]string `json:"b"`
		Asks      [][]string `json:"a"`
		Timestamp int64      `json:"ts"`
	}
	if err := decodeResult(resp, &result); err != nil {
		return nil, fmt.Errorf("parse order book: %w", err)
	}

	book := &types.OrderBookSnapshot{Timestamp: time.UnixMilli(result.Timestamp).UTC()}
	for _, row := range result.Bids {
		if len(row) >= 2 {
			book.Bids = append(book.Bids, types.PriceLevel{Price: parseFloat(row[0]), Size: parseFloat(row[1])})
		}
	}
	for _, row := range result.Asks {
		if len(row) >= 2 {
			book.Asks = append(book.Asks, types.PriceLevel{Price: parseFloat(row[0]), Size: parseFloat(row[1])})
		}
	}
	return book, nil
}

// LatestPrice fetches the last traded price for symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
	}
	resp, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("get tickers: %w", err)
	}

	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := decodeResult(resp, &result); err != nil {
		return 0, fmt.Errorf("parse tickers: %w", err)
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no ticker data for %s", symbol)
	}
	return parseFloat(result.List[0].LastPrice), nil
}

// decodeResult checks the API envelope and unmarshals its result payload.
func decodeResult(resp interface{}, out interface{}) error {
	serverResp, ok := resp.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("unexpected response type %T", resp)
	}
	if serverResp.RetCode != 0 {
		return fmt.Errorf("api error %d: %s", serverResp.RetCode, serverResp.RetMsg)
	}
	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
