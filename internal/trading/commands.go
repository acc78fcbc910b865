package trading

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxTitleLength = 255

var maxRating = decimal.NewFromInt(5)

// ResolveAction is the outcome chosen for a queue entry.
type ResolveAction string

const (
	ActionAccept  ResolveAction = "accept"
	ActionDecline ResolveAction = "decline"
)

// ParseResolveAction validates a raw action string.
func ParseResolveAction(raw string) (ResolveAction, error) {
	switch ResolveAction(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionAccept:
		return ActionAccept, nil
	case ActionDecline:
		return ActionDecline, nil
	}
	return "", newFieldError("action", raw, "invalid action %q", raw)
}

// CreateTradeRequest opens a new trade owned by InitiatorID.
type CreateTradeRequest struct {
	InitiatorID     uuid.UUID
	InitiatorSkills []uuid.UUID
	DesiredSkills   []uuid.UUID
	Terms           string
	Title           string
	Description     string
}

func (r *CreateTradeRequest) Validate() error {
	if r.InitiatorID == uuid.Nil {
		return newFieldError("initiator", "", "initiator is required")
	}
	if len(r.InitiatorSkills) == 0 {
		return newFieldError("initiator_skills", "", "initiator skills are required")
	}
	if len(r.Title) > maxTitleLength {
		return newFieldError("title", len(r.Title), "title must be at most %d characters", maxTitleLength)
	}
	r.InitiatorSkills = dedupe(r.InitiatorSkills)
	r.DesiredSkills = dedupe(r.DesiredSkills)
	return nil
}

// ApplyRequest is a candidate asking to join a trade's queue.
type ApplyRequest struct {
	TradeID uuid.UUID
	UserID  uuid.UUID
}

func (r ApplyRequest) Validate() error {
	if r.TradeID == uuid.Nil {
		return newFieldError("trade_id", "", "trade ID is required")
	}
	if r.UserID == uuid.Nil {
		return newFieldError("user", "", "user is required")
	}
	return nil
}

// InviteRequest is an initiator placing a candidate into the queue.
type InviteRequest struct {
	TradeID     uuid.UUID
	InitiatorID uuid.UUID
	InviteeID   uuid.UUID
}

func (r InviteRequest) Validate() error {
	if r.TradeID == uuid.Nil || r.InviteeID == uuid.Nil {
		return newFieldError("invitee_id", "", "trade ID and invitee ID are required")
	}
	if r.InitiatorID == uuid.Nil {
		return newFieldError("initiator", "", "initiator is required")
	}
	return nil
}

// RespondRequest resolves a queue entry. It is used by the candidate
// answering an invitation and by the initiator answering an application.
type RespondRequest struct {
	EntryID uuid.UUID
	ActorID uuid.UUID
	Action  ResolveAction
	Terms   string
}

func (r RespondRequest) Validate() error {
	if r.EntryID == uuid.Nil {
		return newFieldError("queue_id", "", "queue ID is required")
	}
	if r.ActorID == uuid.Nil {
		return newFieldError("actor", "", "actor is required")
	}
	switch r.Action {
	case ActionAccept:
		if strings.TrimSpace(r.Terms) == "" {
			return newFieldError("responder_terms", "", "responder terms are required for acceptance")
		}
	case ActionDecline:
	default:
		return newFieldError("action", string(r.Action), "invalid action %q", r.Action)
	}
	return nil
}

// RemoveCandidateRequest drops a queue entry, either by the trade's
// initiator or by the candidate withdrawing.
type RemoveCandidateRequest struct {
	EntryID uuid.UUID
	ActorID uuid.UUID
}

func (r RemoveCandidateRequest) Validate() error {
	if r.EntryID == uuid.Nil {
		return newFieldError("queue_id", "", "queue ID is required")
	}
	if r.ActorID == uuid.Nil {
		return newFieldError("actor", "", "actor is required")
	}
	return nil
}

// TradeActionRequest names a trade and the user acting on it.
type TradeActionRequest struct {
	TradeID uuid.UUID
	ActorID uuid.UUID
}

func (r TradeActionRequest) Validate() error {
	if r.TradeID == uuid.Nil {
		return newFieldError("trade_id", "", "trade ID is required")
	}
	if r.ActorID == uuid.Nil {
		return newFieldError("actor", "", "actor is required")
	}
	return nil
}

// CreateReviewRequest rates the initiator of a completed trade.
type CreateReviewRequest struct {
	TradeID    uuid.UUID
	ReviewerID uuid.UUID
	Rating     decimal.Decimal
	Feedback   string
}

func (r CreateReviewRequest) Validate() error {
	if r.TradeID == uuid.Nil {
		return newFieldError("trade_id", "", "trade ID is required")
	}
	if r.ReviewerID == uuid.Nil {
		return newFieldError("reviewer", "", "reviewer is required")
	}
	return validateRating(r.Rating)
}

// UpdateReviewRequest replaces the rating and feedback of a review.
type UpdateReviewRequest struct {
	ReviewID   uuid.UUID
	ReviewerID uuid.UUID
	Rating     decimal.Decimal
	Feedback   string
}

func (r UpdateReviewRequest) Validate() error {
	if r.ReviewID == uuid.Nil {
		return newFieldError("review_id", "", "review ID is required")
	}
	if r.ReviewerID == uuid.Nil {
		return newFieldError("reviewer", "", "reviewer is required")
	}
	return validateRating(r.Rating)
}

func validateRating(rating decimal.Decimal) error {
	if rating.IsNegative() || rating.GreaterThan(maxRating) {
		return newFieldError("rating", rating.String(), "rating must be between 0.00 and %s", maxRating.StringFixed(2))
	}
	if !rating.Equal(rating.Round(2)) {
		return newFieldError("rating", rating.String(), "rating must have at most two decimal places")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
