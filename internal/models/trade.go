package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "Pending"
	TradeStatusAccepted  TradeStatus = "Accepted"
	TradeStatusCompleted TradeStatus = "Completed"
	// TradeStatusCancelled is kept for schema compatibility. No operation
	// currently transitions a trade into it.
	TradeStatusCancelled TradeStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusAccepted, TradeStatusCompleted, TradeStatusCancelled:
		return true
	}
	return false
}

// Trade pairs the skills an initiator offers with the skills they want back.
// ResponderID, ResponderTerms and ResponderSkills stay empty while the trade
// is Pending and are filled together when a queue entry is accepted.
type Trade struct {
	ID              uuid.UUID   `json:"id"`
	InitiatorID     uuid.UUID   `json:"initiator"`
	ResponderID     *uuid.UUID  `json:"responder,omitempty"`
	InitiatorSkills []uuid.UUID `json:"initiator_skills"`
	DesiredSkills   []uuid.UUID `json:"desired_skills"`
	ResponderSkills []uuid.UUID `json:"responder_skills"`
	Status          TradeStatus `json:"status"`
	InitiatorTerms  string      `json:"initiator_terms"`
	ResponderTerms  string      `json:"responder_terms,omitempty"`
	Title           string      `json:"title,omitempty"`
	Description     string      `json:"description,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

// IsParticipant reports whether the user is the initiator or the responder.
func (t *Trade) IsParticipant(userID uuid.UUID) bool {
	if t.InitiatorID == userID {
		return true
	}
	return t.ResponderID != nil && *t.ResponderID == userID
}

// Counterpart returns the other participant of the trade, if there is one.
func (t *Trade) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	if t.ResponderID == nil {
		return uuid.Nil, false
	}
	switch userID {
	case t.InitiatorID:
		return *t.ResponderID, true
	case *t.ResponderID:
		return t.InitiatorID, true
	}
	return uuid.Nil, false
}
