// Package binance implements a minimal REST client for the Binance spot
// market-data API, serving as the price window source for the strategy loop.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// Client is the REST client for the Binance spot market-data API. Only public
// endpoints are used, so no API key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Binance market-data client.
//
// baseURL is the API root, e.g. "https://api.binance.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Klines returns up to limit most-recent candlesticks for the given symbol
// and interval, oldest first.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, "/api/v3/klines?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("binance: get klines %s %s: %w", symbol, interval, err)
	}

	var raw []rawKline
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance: decode klines: %w", err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, k := range raw {
		candle, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("binance: parse kline: %w", err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// Closes returns the closing prices of up to limit most-recent bars, oldest
// first. It implements domain.CandleSource for the strategy loop.
func (c *Client) Closes(ctx context.Context, instrument, interval string, limit int) ([]float64, error) {
	candles, err := c.Klines(ctx, instrument, interval, limit)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[i] = candle.Close
	}
	return closes, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest sends a GET request against the Binance API and reads the body.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s (%d)", apiErr.Msg, apiErr.Code)
	case http.StatusTooManyRequests, http.StatusTeapot:
		// Binance uses 418 for repeat offenders of the rate limit.
		return fmt.Errorf("rate limited: %s (%d)", apiErr.Msg, apiErr.Code)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s (%d)", apiErr.Msg, apiErr.Code)
	default:
		return fmt.Errorf("HTTP %d: %s (%d)", statusCode, apiErr.Msg, apiErr.Code)
	}
}

// parseKline converts one positional kline array into a Candle.
func parseKline(k rawKline) (domain.Candle, error) {
	if len(k) < 7 {
		return domain.Candle{}, fmt.Errorf("short kline array (%d fields)", len(k))
	}

	openTime, ok := k[0].(float64)
	if !ok {
		return domain.Candle{}, fmt.Errorf("open time is %T, want number", k[0])
	}

	prices := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return domain.Candle{}, fmt.Errorf("field %d is %T, want string", i, k[i])
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		prices[i-1] = f
	}

	return domain.Candle{
		OpenTime: int64(openTime),
		Open:     prices[0],
		High:     prices[1],
		Low:      prices[2],
		Close:    prices[3],
		Volume:   prices[4],
	}, nil
}
