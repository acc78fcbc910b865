package models

import (
	"time"

	"github.com/google/uuid"
)

// Trade event types published after a successful transition.
const (
	EventTradeCreated   = "TRADE_CREATED"
	EventQueueApplied   = "QUEUE_APPLIED"
	EventQueueInvited   = "QUEUE_INVITED"
	EventQueueResolved  = "QUEUE_RESOLVED"
	EventQueueRemoved   = "QUEUE_REMOVED"
	EventTradeAccepted  = "TRADE_ACCEPTED"
	EventTradeCompleted = "TRADE_COMPLETED"
	EventTradeDeleted   = "TRADE_DELETED"
	EventReviewChanged  = "REVIEW_CHANGED"
)

// TradeEvent is the envelope written to the trade events topic.
type TradeEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
	Data      TradeEventData `json:"data"`
}

// TradeEventData carries the ids touched by a transition.
type TradeEventData struct {
	TradeID      uuid.UUID   `json:"trade_id"`
	ActorID      uuid.UUID   `json:"actor_id"`
	Status       TradeStatus `json:"status,omitempty"`
	QueueEntryID *uuid.UUID  `json:"queue_entry_id,omitempty"`
	QueueStatus  QueueStatus `json:"queue_status,omitempty"`
	ReviewID     *uuid.UUID  `json:"review_id,omitempty"`
	Purged       int         `json:"purged,omitempty"`
}

// NewTradeEvent builds an event stamped with the current time.
func NewTradeEvent(eventType string, data TradeEventData) TradeEvent {
	return TradeEvent{
		EventType: eventType,
		Source:    "skill-exchange-service",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}
