package models

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus is the state of one candidate's entry in a trade queue.
type QueueStatus string

const (
	QueueStatusApplied  QueueStatus = "Applied"
	QueueStatusInvited  QueueStatus = "Invited"
	QueueStatusAccepted QueueStatus = "Accepted"
	QueueStatusRejected QueueStatus = "Rejected"
)

// QueueEntry is a candidate's application or invitation for a trade.
type QueueEntry struct {
	ID         uuid.UUID   `json:"id"`
	TradeID    uuid.UUID   `json:"trade"`
	UserID     uuid.UUID   `json:"user"`
	Username   string      `json:"username,omitempty"`
	Status     QueueStatus `json:"status"`
	AppliedAt  *time.Time  `json:"applied_at,omitempty"`
	InvitedAt  *time.Time  `json:"invited_at,omitempty"`
	AcceptedAt *time.Time  `json:"accepted_at,omitempty"`
	RejectedAt *time.Time  `json:"rejected_at,omitempty"`
}
