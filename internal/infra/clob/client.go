package clob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// Client is the REST gateway to the exchange: market snapshots, order
// submission, status queries, and account positions.
//
// Retry policy: transient/5xx errors back off exponentially up to maxRetries;
// any 4xx surfaces immediately (401/403 as domain.ErrAuth). A submit whose
// transport fails after the request may have been sent returns
// domain.ErrAmbiguousOutcome; the caller resolves it with OrderStatus, never
// by resubmitting blind.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer

	marketLimiter *infra.RateLimiter
	orderLimiter  *infra.RateLimiter
	breaker       *infra.CircuitBreaker
	maxRetries    int
	windowSecs    int64
}

// NewClient creates a new CLOB REST client.
func NewClient(cfg *infra.Config) *Client {
	timeout := time.Duration(cfg.API.Clob.RequestTimeoutMS) * time.Millisecond

	return &Client{
		baseURL: strings.TrimRight(cfg.API.Clob.RestURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signer:        NewSigner(cfg.API.Clob.APIKey, cfg.API.Clob.APISecret, cfg.API.Clob.Passphrase),
		marketLimiter: infra.GetMarketLimiter(),
		orderLimiter:  infra.GetOrderLimiter(),
		breaker:       infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("clob")),
		maxRetries:    cfg.API.Clob.MaxRetries,
		windowSecs:    cfg.Engine.WindowSecs,
	}
}

// Close wipes credentials.
func (c *Client) Close() error {
	c.signer.Wipe()
	return nil
}

// ActiveMarkets lists the currently open resolution-window markets for the
// given symbols.
func (c *Client) ActiveMarkets(ctx context.Context, symbols []string) ([]domain.MarketSnapshot, error) {
	path := "/markets?status=open&symbols=" + url.QueryEscape(strings.Join(symbols, ","))

	body, err := c.getWithRetry(ctx, path, c.marketLimiter)
	if err != nil {
		return nil, err
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	snaps := make([]domain.MarketSnapshot, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		snap, err := toSnapshot(m)
		if err != nil {
			slog.Warn("Skipping unparsable market", slog.String("market", m.MarketID), slog.Any("error", err))
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// Snapshot fetches the current book state for one market.
func (c *Client) Snapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, error) {
	path := "/markets/" + url.PathEscape(marketID)

	body, err := c.getWithRetry(ctx, path, c.marketLimiter)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	var m marketResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("decode market: %w", err)
	}
	return toSnapshot(m)
}

// SubmitOrder places a GTD limit order expiring at the window end. The
// idempotency key rides in the body and as a header, so resubmission with the
// same key cannot create a duplicate order.
func (c *Client) SubmitOrder(ctx context.Context, clientOrderID string, intent domain.OrderIntent) (domain.SubmitResult, error) {
	req := orderRequest{
		MarketID:       intent.MarketID,
		Side:           string(intent.Side),
		Price:          microsToDecimalStr(int64(intent.LimitPriceMicros)),
		Size:           microsToDecimalStr(int64(intent.SizeMicros)),
		ClientOrderID:  clientOrderID,
		IdempotencyKey: intent.IdempotencyKey,
		OrderType:      "GTD",
		ExpiresAt:      intent.Window.End(c.windowSecs).UnixMilli(),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("encode order: %w", err)
	}

	c.orderLimiter.Wait()
	if !c.breaker.Allow() {
		return domain.SubmitResult{}, domain.Transient(fmt.Errorf("circuit breaker open"))
	}

	body, status, err := c.do(ctx, http.MethodPost, "/orders", payload, map[string]string{
		"Idempotency-Key": intent.IdempotencyKey,
	})
	if err != nil {
		c.breaker.RecordFailure()
		// The request may have reached the exchange before the failure.
		// Outcome is ambiguous: resolved by a status query, never resubmitted.
		return domain.SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrAmbiguousOutcome, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.breaker.RecordSuccess() // endpoint is healthy, keys are not
		return domain.SubmitResult{}, fmt.Errorf("%w: submit returned %d", domain.ErrAuth, status)
	case status >= 500:
		c.breaker.RecordFailure()
		return domain.SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrAmbiguousOutcome, apiMessage(body, status))
	case status >= 400:
		c.breaker.RecordSuccess()
		slog.Warn("Order rejected by exchange", slog.String("client_order_id", clientOrderID), slog.String("reason", apiMessage(body, status).Error()))
		return domain.SubmitResult{Status: domain.OrderRejected}, nil
	}

	c.breaker.RecordSuccess()

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("decode order ack: %w", err)
	}
	return toSubmitResult(resp)
}

// OrderStatus queries the exchange for the authoritative state of an order by
// client order ID. This is the resolution path for UNKNOWN outcomes.
func (c *Client) OrderStatus(ctx context.Context, clientOrderID string) (domain.StatusResult, error) {
	path := "/orders/" + url.PathEscape(clientOrderID) + "?by=client_id"

	body, err := c.getWithRetry(ctx, path, c.orderLimiter)
	if err != nil {
		return domain.StatusResult{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.StatusResult{}, fmt.Errorf("decode order status: %w", err)
	}

	filled, err := sizeToMicros(resp.FilledSize)
	if err != nil {
		return domain.StatusResult{}, err
	}
	fills, err := toFills(resp.Fills)
	if err != nil {
		return domain.StatusResult{}, err
	}

	return domain.StatusResult{
		ExchangeOrderID: resp.OrderID,
		Status:          parseOrderStatus(resp.Status),
		FilledMicros:    filled,
		Fills:           fills,
	}, nil
}

// CancelOrder requests cancellation of an open order.
func (c *Client) CancelOrder(ctx context.Context, clientOrderID string) error {
	c.orderLimiter.Wait()

	path := "/orders/" + url.PathEscape(clientOrderID)
	body, status, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return domain.Transient(err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: cancel returned %d", domain.ErrAuth, status)
	}
	if status >= 400 {
		return apiMessage(body, status)
	}
	return nil
}

// Positions fetches the exchange-reported position per market, used for
// ledger drift reconciliation at cycle start.
func (c *Client) Positions(ctx context.Context) (map[string]quant.SizeMicros, error) {
	body, err := c.getWithRetry(ctx, "/positions", c.marketLimiter)
	if err != nil {
		return nil, err
	}

	var resp positionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}

	out := make(map[string]quant.SizeMicros, len(resp.Positions))
	for _, p := range resp.Positions {
		size, err := sizeToMicros(p.Size)
		if err != nil {
			return nil, err
		}
		out[p.MarketID] = size
	}
	return out, nil
}

// getWithRetry performs a GET with rate limiting, circuit breaking, and
// exponential backoff on transient failures. 4xx surfaces immediately.
func (c *Client) getWithRetry(ctx context.Context, path string, limiter *infra.RateLimiter) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := infra.CalculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		limiter.Wait()
		if !c.breaker.Allow() {
			lastErr = domain.Transient(fmt.Errorf("circuit breaker open"))
			continue
		}

		body, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			c.breaker.RecordFailure()
			lastErr = domain.Transient(err)
			continue
		}

		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			c.breaker.RecordSuccess()
			return nil, fmt.Errorf("%w: %s returned %d", domain.ErrAuth, path, status)
		case status == http.StatusTooManyRequests || status >= 500:
			c.breaker.RecordFailure()
			lastErr = domain.Transient(apiMessage(body, status))
			continue
		case status >= 400:
			c.breaker.RecordSuccess()
			return nil, apiMessage(body, status)
		}

		c.breaker.RecordSuccess()
		return body, nil
	}

	return nil, fmt.Errorf("%s failed after %d attempts: %w", path, c.maxRetries+1, lastErr)
}

// do executes a single signed HTTP request.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, extraHeaders map[string]string) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}

	for k, v := range c.signer.GenerateHeaders(method, path, string(payload)) {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func apiMessage(body []byte, status int) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Message != "" {
		return fmt.Errorf("exchange error %d: %s (%s)", status, ae.Message, ae.Code)
	}
	return fmt.Errorf("exchange error %d", status)
}

func toSubmitResult(resp orderResponse) (domain.SubmitResult, error) {
	filled, err := sizeToMicros(resp.FilledSize)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	fills, err := toFills(resp.Fills)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	return domain.SubmitResult{
		ExchangeOrderID: resp.OrderID,
		Status:          parseOrderStatus(resp.Status),
		FilledMicros:    filled,
		Fills:           fills,
	}, nil
}

func toFills(wires []fillWire) ([]domain.Fill, error) {
	if len(wires) == 0 {
		return nil, nil
	}
	fills := make([]domain.Fill, 0, len(wires))
	for _, w := range wires {
		f, err := toFill(w)
		if err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, nil
}
