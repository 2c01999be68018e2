package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
)

type countingSink struct {
	published int
	closeErr  error
	closed    bool
}

func (s *countingSink) Publish(context.Context, domain.CycleReport) { s.published++ }

func (s *countingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func TestMultiPublisher_FanOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{closeErr: errors.New("close failed")}
	multi := MultiPublisher{a, b, LogPublisher{}}

	multi.Publish(context.Background(), domain.CycleReport{
		MarketID: "mkt-btc",
		Decision: domain.DecisionNoOp,
	})

	if a.published != 1 || b.published != 1 {
		t.Errorf("fan-out counts = %d, %d; want 1, 1", a.published, b.published)
	}

	err := multi.Close()
	if err == nil || err.Error() != "close failed" {
		t.Errorf("Close must surface the first sink error, got %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("every sink must be closed even when one fails")
	}
}
