package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Review is the responder's rating of a completed trade's initiator.
type Review struct {
	ID         uuid.UUID       `json:"id"`
	TradeID    uuid.UUID       `json:"trade"`
	ReviewerID uuid.UUID       `json:"reviewer"`
	RevieweeID uuid.UUID       `json:"reviewee"`
	Rating     decimal.Decimal `json:"rating"`
	Feedback   string          `json:"feedback,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
