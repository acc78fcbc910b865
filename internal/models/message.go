package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat line exchanged between the two participants of a trade.
type Message struct {
	ID         uuid.UUID `json:"id"`
	TradeID    uuid.UUID `json:"trade"`
	SenderID   uuid.UUID `json:"sender"`
	ReceiverID uuid.UUID `json:"receiver"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
}
