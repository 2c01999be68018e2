package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
)

// Publisher receives one CycleReport per finished (market, window) cycle.
// Publishing must never block or fail the trading path; sinks log their own
// errors and move on.
type Publisher interface {
	Publish(ctx context.Context, report domain.CycleReport)
	Close() error
}

// LogPublisher writes cycle reports to the structured log. Always active.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(_ context.Context, r domain.CycleReport) {
	attrs := []any{
		slog.Int64("window", int64(r.Window)),
		slog.String("market", r.MarketID),
		slog.String("decision", r.Decision),
		slog.Int64("latency_us", r.LatencyMicros),
	}
	if r.OrderStatus != "" {
		attrs = append(attrs, slog.String("order_status", string(r.OrderStatus)))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}
	slog.Info("CYCLE_REPORT", attrs...)
}

// Close implements Publisher.
func (LogPublisher) Close() error { return nil }

// RedisPublisher appends cycle reports to a Redis Stream so external
// dashboards can consume them without touching the bot.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, stream string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("Telemetry Redis sink connected",
		slog.String("addr", addr),
		slog.String("stream", stream),
	)
	return &RedisPublisher{client: client, stream: stream}, nil
}

// Publish implements Publisher. Failures are logged, never propagated.
func (p *RedisPublisher) Publish(ctx context.Context, r domain.CycleReport) {
	payload, err := json.Marshal(r)
	if err != nil {
		slog.Error("Telemetry encode failed", slog.Any("error", err))
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{"report": payload},
	}).Err()
	if err != nil {
		slog.Warn("Telemetry publish failed", slog.Any("error", err))
	}
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// MultiPublisher fans one report out to every sink.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, r domain.CycleReport) {
	for _, p := range m {
		p.Publish(ctx, r)
	}
}

// Close implements Publisher, closing every sink and returning the first
// error.
func (m MultiPublisher) Close() error {
	var firstErr error
	for _, p := range m {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
