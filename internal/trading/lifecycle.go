package trading

import (
	"context"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// messagingStatuses are the trade states in which participants may chat.
var messagingStatuses = map[models.TradeStatus]bool{
	models.TradeStatusAccepted: true,
}

// MessagingOpen reports whether messages may be sent on a trade in status.
func MessagingOpen(status models.TradeStatus) bool {
	return messagingStatuses[status]
}

// CreateTrade opens a Pending trade. Every initiator skill must exist and be
// offered by the initiator; every desired skill must exist.
func (s *Service) CreateTrade(ctx context.Context, req CreateTradeRequest) (*models.Trade, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var trade *models.Trade
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		initiator, err := tx.GetUser(ctx, req.InitiatorID)
		if err != nil {
			return err
		}
		if initiator == nil {
			return NewNotFoundError("user %s does not exist", req.InitiatorID)
		}

		known, err := existingSkills(ctx, tx, append(append([]uuid.UUID{}, req.InitiatorSkills...), req.DesiredSkills...))
		if err != nil {
			return err
		}
		offered, err := tx.OfferedSkillIDs(ctx, initiator.ID)
		if err != nil {
			return err
		}
		owned := make(map[uuid.UUID]bool, len(offered))
		for _, id := range offered {
			owned[id] = true
		}
		for _, id := range req.InitiatorSkills {
			if !known[id] {
				return newFieldError("initiator_skills", id.String(), "skill with ID %s does not exist", id)
			}
			if !owned[id] {
				return newFieldError("initiator_skills", id.String(), "you do not have the skill with ID %s in your profile", id)
			}
		}
		for _, id := range req.DesiredSkills {
			if !known[id] {
				return newFieldError("desired_skills", id.String(), "desired skill with ID %s does not exist", id)
			}
		}

		trade = &models.Trade{
			ID:              uuid.New(),
			InitiatorID:     initiator.ID,
			InitiatorSkills: req.InitiatorSkills,
			DesiredSkills:   req.DesiredSkills,
			ResponderSkills: []uuid.UUID{},
			Status:          models.TradeStatusPending,
			InitiatorTerms:  req.Terms,
			Title:           req.Title,
			Description:     req.Description,
			CreatedAt:       s.now(),
		}
		if err := tx.InsertTrade(ctx, trade); err != nil {
			return err
		}

		out.transitions = append(out.transitions, "create")
		out.emit(models.EventTradeCreated, models.TradeEventData{
			TradeID: trade.ID, ActorID: initiator.ID, Status: trade.Status,
		})
		s.log.Audit("trade created", "trade_id", trade.ID, "initiator_id", initiator.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// RespondToInvitation is the candidate's answer to a queue entry of theirs.
func (s *Service) RespondToInvitation(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	return s.respond(ctx, req, func(trade *models.Trade, entry *models.QueueEntry) error {
		if entry.UserID != req.ActorID {
			return NewAuthorizationError("you are not the invitee of this queue entry")
		}
		return nil
	})
}

// ResolveApplication is the initiator's answer to a queue entry of their trade.
func (s *Service) ResolveApplication(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	return s.respond(ctx, req, func(trade *models.Trade, entry *models.QueueEntry) error {
		if trade.InitiatorID != req.ActorID {
			return NewAuthorizationError("you are not the initiator of this trade")
		}
		return nil
	})
}

// AcceptViaInvitation confirms an invitation; the candidate becomes responder.
func (s *Service) AcceptViaInvitation(ctx context.Context, entryID, candidateID uuid.UUID, terms string) (*models.Trade, error) {
	return s.RespondToInvitation(ctx, RespondRequest{EntryID: entryID, ActorID: candidateID, Action: ActionAccept, Terms: terms})
}

// AcceptApplication approves an application; the applicant becomes responder.
func (s *Service) AcceptApplication(ctx context.Context, entryID, initiatorID uuid.UUID, terms string) (*models.Trade, error) {
	return s.ResolveApplication(ctx, RespondRequest{EntryID: entryID, ActorID: initiatorID, Action: ActionAccept, Terms: terms})
}

func (s *Service) respond(ctx context.Context, req RespondRequest, authorize func(*models.Trade, *models.QueueEntry) error) (*models.Trade, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var trade *models.Trade
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		var entry *models.QueueEntry
		var err error
		trade, entry, err = lockEntryTrade(ctx, tx, req.EntryID)
		if err != nil {
			return err
		}
		if err := authorize(trade, entry); err != nil {
			return err
		}
		return s.resolve(ctx, tx, out, trade, entry, req)
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// CompleteTrade closes an Accepted trade on the initiator's request.
func (s *Service) CompleteTrade(ctx context.Context, req TradeActionRequest) (*models.Trade, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var trade *models.Trade
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		var err error
		trade, err = tx.LockTrade(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			return NewNotFoundError("trade %s does not exist", req.TradeID)
		}
		if trade.InitiatorID != req.ActorID {
			return NewAuthorizationError("you are not the initiator of this trade")
		}
		if trade.Status != models.TradeStatusAccepted {
			return NewValidationError("trade must be accepted before it can be completed (status %s)", trade.Status)
		}

		now := s.now()
		trade.Status = models.TradeStatusCompleted
		trade.CompletedAt = &now
		if err := tx.UpdateTrade(ctx, trade); err != nil {
			return err
		}

		out.transitions = append(out.transitions, "complete")
		out.emit(models.EventTradeCompleted, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.ActorID, Status: trade.Status,
		})
		s.log.Audit("trade completed", "trade_id", trade.ID, "initiator_id", req.ActorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// DeleteTrade removes a trade together with everything it owns: queue
// entries, messages and its review. The former reviewee's rating is
// recomputed in the same transaction.
func (s *Service) DeleteTrade(ctx context.Context, req TradeActionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	return s.run(ctx, func(tx Tx, out *outcome) error {
		trade, err := tx.LockTrade(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			return NewNotFoundError("trade %s does not exist", req.TradeID)
		}
		if trade.InitiatorID != req.ActorID {
			return NewAuthorizationError("you are not the initiator of this trade")
		}

		purged, err := tx.DeleteQueueEntriesExcept(ctx, trade.ID, uuid.Nil)
		if err != nil {
			return err
		}
		messages, err := tx.DeleteTradeMessages(ctx, trade.ID)
		if err != nil {
			return err
		}
		review, err := tx.GetReviewByTrade(ctx, trade.ID)
		if err != nil {
			return err
		}
		if review != nil {
			if err := tx.DeleteReview(ctx, review.ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteTrade(ctx, trade.ID); err != nil {
			return err
		}
		if review != nil {
			if _, err := recompute(ctx, tx, review.RevieweeID); err != nil {
				return err
			}
			out.reviews = append(out.reviews, "delete")
		}

		out.transitions = append(out.transitions, "delete")
		out.emit(models.EventTradeDeleted, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.ActorID, Status: trade.Status, Purged: purged,
		})
		s.log.Audit("trade deleted", "trade_id", trade.ID, "initiator_id", req.ActorID,
			"queue_entries", purged, "messages", messages, "had_review", review != nil)
		return nil
	})
}

// GetTrade returns a trade to one of its participants.
func (s *Service) GetTrade(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	return s.ParticipantTrade(ctx, tradeID, userID)
}

// ParticipantTrade loads a trade and checks that userID takes part in it.
// Messaging uses it to gate every operation.
func (s *Service) ParticipantTrade(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, NewNotFoundError("trade %s does not exist", tradeID)
	}
	if !trade.IsParticipant(userID) {
		return nil, NewAuthorizationError("you are not a participant in this trade")
	}
	return trade, nil
}

// ListTrades returns the trades the user initiated or responds to.
func (s *Service) ListTrades(ctx context.Context, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Trade], error) {
	return s.store.ListTradesForUser(ctx, userID, search, page.Normalize())
}

// ListQueue shows a trade's queue to its initiator.
func (s *Service) ListQueue(ctx context.Context, tradeID, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.QueueEntry], error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return models.PageResult[*models.QueueEntry]{}, err
	}
	if trade == nil {
		return models.PageResult[*models.QueueEntry]{}, NewNotFoundError("trade %s does not exist", tradeID)
	}
	if trade.InitiatorID != userID {
		return models.PageResult[*models.QueueEntry]{}, NewAuthorizationError("you do not have permission to view this queue")
	}
	return s.store.ListQueueEntries(ctx, tradeID, search, page.Normalize())
}

func existingSkills(ctx context.Context, tx Tx, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	known := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	skills, err := tx.GetSkills(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, sk := range skills {
		known[sk.ID] = true
	}
	return known, nil
}
