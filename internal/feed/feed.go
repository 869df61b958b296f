// Package feed delivers external point snapshots from the chat bot to the
// ledger. A Source produces events (the Streamer.bot WebSocket client, or
// the HTTP sync endpoint calling Apply directly); the Consumer mirrors them
// into the ledger in arrival order.
//
// Delivery is at-least-once and may be out of order. The ledger's
// max-merge of total earned tolerates that; the balance is last write wins.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/ledger"
)

// Event is one point snapshot for a viewer.
type Event struct {
	UserID      string
	Balance     int64
	TotalEarned int64
	Source      string
	ReceivedAt  time.Time
}

// Source produces events until ctx is cancelled or it fails for good.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Earner is the ledger operation the consumer drives.
type Earner interface {
	Earn(ctx context.Context, ev ledger.EarnEvent) error
}

var feedEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feed_events_total",
		Help: "Point snapshots received from the chat bot, by source and result.",
	},
	[]string{"source", "result"},
)

func init() {
	prometheus.MustRegister(feedEvents)
}

// Consumer applies events to the ledger.
type Consumer struct {
	Ledger Earner
	Logger *zerolog.Logger
	// Buffer is the capacity of the channel between source and consumer.
	Buffer int
}

func (c *Consumer) log() *zerolog.Logger {
	if c.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return c.Logger
}

// Apply mirrors a single event. The user id is normalized the same way as
// shop identities. Failures are counted and returned; they are never
// retried here.
func (c *Consumer) Apply(ctx context.Context, ev Event) error {
	source := ev.Source
	if source == "" {
		source = "unknown"
	}
	ev.UserID = domain.NormalizeUserID(ev.UserID)

	err := c.Ledger.Earn(ctx, ledger.EarnEvent{
		UserID:      ev.UserID,
		Balance:     ev.Balance,
		TotalEarned: ev.TotalEarned,
	})
	switch {
	case err == nil:
		feedEvents.WithLabelValues(source, "applied").Inc()
	case ledger.IsClientError(err):
		feedEvents.WithLabelValues(source, "rejected").Inc()
	default:
		feedEvents.WithLabelValues(source, "failed").Inc()
	}
	if err != nil {
		return fmt.Errorf("feed: apply %s: %w", ev.UserID, err)
	}
	return nil
}

// Run starts src and applies its events until ctx is cancelled or the
// source stops. Individual apply failures are logged and skipped.
func (c *Consumer) Run(ctx context.Context, src Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	buf := c.Buffer
	if buf <= 0 {
		buf = 64
	}
	events := make(chan Event, buf)
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, events)
		close(events)
	}()

	// Events already received are applied even after cancellation.
	applyCtx := context.WithoutCancel(ctx)
	for ev := range events {
		if err := c.Apply(applyCtx, ev); err != nil {
			c.log().Warn().Err(err).
				Str("user_id", ev.UserID).
				Int64("balance", ev.Balance).
				Str("source", ev.Source).
				Msg("feed event not applied")
		}
	}

	err := <-done
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
