package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-profit-calculator-go/internal/config"
)

const (
	baseURL = "https://api.binance.com/api/v3"

	// codeInvalidSymbol is the exchange error code for an unknown trading pair.
	codeInvalidSymbol = -1121
)

// ErrUnknownSymbol is returned when the exchange does not list the requested pair.
var ErrUnknownSymbol = errors.New("unknown symbol")

// PriceClient is the read-only market data surface the calculators use.
type PriceClient interface {
	GetServerTime(ctx context.Context) (int64, error)
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)
}

// RestClient is a client for the public Binance market data endpoints.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration // base delay of the exponential retry backoff
}

var _ PriceClient = (*RestClient)(nil)

// NewRestClient creates a new Binance REST API client.
func NewRestClient(cfg *config.Market, logger *zap.Logger) *RestClient {
	url := cfg.BaseURL
	if url == "" {
		url = baseURL
	}
	logger.Info("Using market data API", zap.String("base_url", url))

	client := resty.New().SetBaseURL(url)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
		backoff: time.Second,
	}
}

// GetServerTime fetches the current server time from Binance.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime(ctx context.Context) (int64, error) {
	type ServerTimeResponse struct {
		ServerTime int64 `json:"serverTime"`
	}

	req := c.client.R().
		SetContext(ctx).
		SetResult(&ServerTimeResponse{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/time", req)
	if err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}

	result := resp.Result().(*ServerTimeResponse)
	return result.ServerTime, nil
}

// TickerPrice represents the response for a single ticker price.
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// APIError is the error body the exchange returns on rejected requests.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// GetTickerPrice fetches the last traded price of symbol (e.g. BTCUSDT).
func (c *RestClient) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty symbol", ErrUnknownSymbol)
	}

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&TickerPrice{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/ticker/price", req)
	if err != nil {
		return 0, fmt.Errorf("failed to get ticker price for %s: %w", symbol, err)
	}

	result := resp.Result().(*TickerPrice)
	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("invalid price %q for %s", result.Price, symbol)
	}

	c.logger.Debug("Fetched ticker price", zap.String("symbol", symbol), zap.Float64("price", price))
	return price, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == 418 { // HTTP 429 or 418
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = fmt.Errorf("request failed with status %s", resp.Status())
		} else {
			// Network or other client-side errors
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, apiError(resp, err)
		}

		if retryAfter == 0 {
			// Exponential backoff: 1, 2, 4 times the base delay
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// apiError decodes the exchange error body of a non-retryable response.
func apiError(resp *resty.Response, err error) error {
	var body APIError
	if json.Unmarshal(resp.Body(), &body) != nil || body.Msg == "" {
		return fmt.Errorf("%w: %s", err, resp.String())
	}
	if body.Code == codeInvalidSymbol {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, body.Msg)
	}
	return fmt.Errorf("%w: %s (code %d)", err, body.Msg, body.Code)
}
