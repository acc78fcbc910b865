package trading

import (
	"context"
	"time"

	"github.com/trogers1052/skill-exchange-service/internal/logger"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// Service runs the trade lifecycle, the queue manager and the rating
// aggregator against a Store.
type Service struct {
	store   Store
	events  EventPublisher
	metrics Recorder
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires the core. events and metrics may be nil.
func NewService(store Store, events EventPublisher, metrics Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		store:   store,
		events:  events,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// outcome collects what a committed transaction should announce.
type outcome struct {
	events      []models.TradeEvent
	transitions []string
	reviews     []string
}

func (o *outcome) emit(eventType string, data models.TradeEventData) {
	o.events = append(o.events, models.NewTradeEvent(eventType, data))
}

// run executes fn in a transaction and, once it has committed, publishes the
// collected events and metrics. Publishing failures are logged only.
func (s *Service) run(ctx context.Context, fn func(tx Tx, out *outcome) error) error {
	out := &outcome{}
	if err := s.store.WithTx(ctx, func(tx Tx) error {
		return fn(tx, out)
	}); err != nil {
		return err
	}

	if s.metrics != nil {
		for _, t := range out.transitions {
			s.metrics.TradeTransition(t)
		}
		for _, r := range out.reviews {
			s.metrics.ReviewMutation(r)
		}
	}
	if s.events != nil {
		for _, ev := range out.events {
			if err := s.events.PublishTradeEvent(ctx, ev); err != nil {
				s.log.Warn("failed to publish trade event",
					"event_type", ev.EventType, "trade_id", ev.Data.TradeID, "error", err)
			}
		}
	}
	return nil
}
