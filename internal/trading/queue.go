package trading

import (
	"context"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// Apply puts the user into the trade's queue as an applicant.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*models.QueueEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var entry *models.QueueEntry
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		trade, err := lockPendingTrade(ctx, tx, req.TradeID)
		if err != nil {
			return err
		}
		if trade.InitiatorID == req.UserID {
			return NewValidationError("you cannot apply to your own trade")
		}
		user, err := tx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFoundError("user %s does not exist", req.UserID)
		}
		if err := requireDesiredSkills(ctx, tx, trade, req.UserID, "you do not have"); err != nil {
			return err
		}
		if err := requireNoQueueEntry(ctx, tx, trade.ID, req.UserID, "you have already applied to this trade"); err != nil {
			return err
		}

		now := s.now()
		entry = &models.QueueEntry{
			ID:        uuid.New(),
			TradeID:   trade.ID,
			UserID:    req.UserID,
			Username:  user.Username,
			Status:    models.QueueStatusApplied,
			AppliedAt: &now,
		}
		if err := tx.InsertQueueEntry(ctx, entry); err != nil {
			return err
		}

		out.transitions = append(out.transitions, "apply")
		out.emit(models.EventQueueApplied, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.UserID, QueueEntryID: &entry.ID, QueueStatus: entry.Status,
		})
		s.log.Audit("queue entry applied", "trade_id", trade.ID, "user_id", req.UserID, "queue_id", entry.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Invite lets the trade's initiator place a qualified user into the queue.
func (s *Service) Invite(ctx context.Context, req InviteRequest) (*models.QueueEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var entry *models.QueueEntry
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		trade, err := tx.LockTrade(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			return NewNotFoundError("trade %s does not exist", req.TradeID)
		}
		if trade.InitiatorID != req.InitiatorID {
			return NewAuthorizationError("you are not the initiator of this trade")
		}
		if trade.Status != models.TradeStatusPending {
			return NewValidationError("trade is %s and no longer accepts candidates", trade.Status)
		}
		if req.InviteeID == trade.InitiatorID {
			return NewValidationError("you cannot invite yourself to your own trade")
		}
		invitee, err := tx.GetUser(ctx, req.InviteeID)
		if err != nil {
			return err
		}
		if invitee == nil {
			return NewNotFoundError("invitee %s does not exist", req.InviteeID)
		}
		if err := requireDesiredSkills(ctx, tx, trade, invitee.ID, "the invitee does not have"); err != nil {
			return err
		}
		if err := requireNoQueueEntry(ctx, tx, trade.ID, invitee.ID, "this user has already been invited or applied to this trade"); err != nil {
			return err
		}

		now := s.now()
		entry = &models.QueueEntry{
			ID:        uuid.New(),
			TradeID:   trade.ID,
			UserID:    invitee.ID,
			Username:  invitee.Username,
			Status:    models.QueueStatusInvited,
			InvitedAt: &now,
		}
		if err := tx.InsertQueueEntry(ctx, entry); err != nil {
			return err
		}

		out.transitions = append(out.transitions, "invite")
		out.emit(models.EventQueueInvited, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.InitiatorID, QueueEntryID: &entry.ID, QueueStatus: entry.Status,
		})
		s.log.Audit("queue entry invited", "trade_id", trade.ID, "initiator_id", req.InitiatorID, "invitee_id", invitee.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveCandidate rejects a queue entry on behalf of the trade's initiator
// or of the candidate withdrawing, and clears the rest of the queue.
func (s *Service) RemoveCandidate(ctx context.Context, req RemoveCandidateRequest) (*models.Trade, error) {
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
		if req.ActorID != trade.InitiatorID && req.ActorID != entry.UserID {
			return NewAuthorizationError("you are neither the initiator of this trade nor the queued user")
		}
		if entry.Status == models.QueueStatusAccepted {
			return NewValidationError("the accepted responder cannot be removed from the queue")
		}

		if entry.Status != models.QueueStatusRejected {
			now := s.now()
			entry.Status = models.QueueStatusRejected
			entry.RejectedAt = &now
			if err := tx.UpdateQueueEntry(ctx, entry); err != nil {
				return err
			}
		}
		purged, err := resolveAndPurge(ctx, tx, trade, entry)
		if err != nil {
			return err
		}

		out.transitions = append(out.transitions, "remove")
		out.emit(models.EventQueueRemoved, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.ActorID, Status: trade.Status,
			QueueEntryID: &entry.ID, QueueStatus: entry.Status, Purged: purged,
		})
		s.log.Audit("queue entry removed", "trade_id", trade.ID, "actor_id", req.ActorID, "queue_id", entry.ID, "purged", purged)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// resolve applies an accept or decline to a queue entry of a pending trade.
// Authorization has already been checked by the caller.
func (s *Service) resolve(ctx context.Context, tx Tx, out *outcome, trade *models.Trade, entry *models.QueueEntry, req RespondRequest) error {
	if entry.Status != models.QueueStatusApplied && entry.Status != models.QueueStatusInvited {
		return NewValidationError("queue entry has already been resolved (%s)", entry.Status)
	}
	if trade.Status != models.TradeStatusPending {
		return NewValidationError("trade is %s and can no longer be resolved", trade.Status)
	}

	now := s.now()
	switch req.Action {
	case ActionAccept:
		skills, err := tx.OfferedSkillIDs(ctx, entry.UserID)
		if err != nil {
			return err
		}
		responder := entry.UserID
		trade.ResponderID = &responder
		trade.ResponderTerms = req.Terms
		trade.ResponderSkills = skills
		trade.Status = models.TradeStatusAccepted
		if err := tx.UpdateTrade(ctx, trade); err != nil {
			return err
		}
		entry.Status = models.QueueStatusAccepted
		entry.AcceptedAt = &now
	case ActionDecline:
		entry.Status = models.QueueStatusRejected
		entry.RejectedAt = &now
	}
	if err := tx.UpdateQueueEntry(ctx, entry); err != nil {
		return err
	}

	purged, err := resolveAndPurge(ctx, tx, trade, entry)
	if err != nil {
		return err
	}

	out.transitions = append(out.transitions, "resolve_"+string(req.Action))
	out.emit(models.EventQueueResolved, models.TradeEventData{
		TradeID: trade.ID, ActorID: req.ActorID, Status: trade.Status,
		QueueEntryID: &entry.ID, QueueStatus: entry.Status, Purged: purged,
	})
	if req.Action == ActionAccept {
		out.transitions = append(out.transitions, "accept")
		out.emit(models.EventTradeAccepted, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.ActorID, Status: trade.Status, QueueEntryID: &entry.ID,
		})
	}
	s.log.Audit("queue entry resolved",
		"trade_id", trade.ID, "queue_id", entry.ID, "actor_id", req.ActorID,
		"action", req.Action, "trade_status", trade.Status, "purged", purged)
	return nil
}

// resolveAndPurge is the queue-clearing policy applied whenever an entry is
// resolved or removed: every other entry of the trade is deleted, whatever
// its relation to keep.
func resolveAndPurge(ctx context.Context, tx Tx, trade *models.Trade, keep *models.QueueEntry) (int, error) {
	return tx.DeleteQueueEntriesExcept(ctx, trade.ID, keep.ID)
}

// lockEntryTrade loads a queue entry, locks its trade and re-reads the entry
// under the lock so a concurrent purge is observed.
func lockEntryTrade(ctx context.Context, tx Tx, entryID uuid.UUID) (*models.Trade, *models.QueueEntry, error) {
	entry, err := tx.GetQueueEntry(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return nil, nil, NewNotFoundError("queue entry %s does not exist", entryID)
	}
	trade, err := tx.LockTrade(ctx, entry.TradeID)
	if err != nil {
		return nil, nil, err
	}
	if trade == nil {
		return nil, nil, NewNotFoundError("trade %s does not exist", entry.TradeID)
	}
	entry, err = tx.GetQueueEntry(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		return nil, nil, NewNotFoundError("queue entry %s does not exist", entryID)
	}
	return trade, entry, nil
}

func lockPendingTrade(ctx context.Context, tx Tx, tradeID uuid.UUID) (*models.Trade, error) {
	trade, err := tx.LockTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, NewNotFoundError("trade %s does not exist", tradeID)
	}
	if trade.Status != models.TradeStatusPending {
		return nil, NewValidationError("trade is %s and no longer accepts candidates", trade.Status)
	}
	return trade, nil
}

// requireDesiredSkills fails with the names of every desired skill the user
// does not offer.
func requireDesiredSkills(ctx context.Context, tx Tx, trade *models.Trade, userID uuid.UUID, subject string) error {
	offered, err := tx.OfferedSkillIDs(ctx, userID)
	if err != nil {
		return err
	}
	missing := missingSkills(trade.DesiredSkills, offered)
	if len(missing) == 0 {
		return nil
	}
	skills, err := tx.GetSkills(ctx, missing)
	if err != nil {
		return err
	}
	return newMissingSkillsError(subject, models.SkillNames(skills))
}

func requireNoQueueEntry(ctx context.Context, tx Tx, tradeID, userID uuid.UUID, msg string) error {
	existing, err := tx.FindQueueEntry(ctx, tradeID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return NewValidationError("%s", msg)
	}
	return nil
}

// missingSkills returns desired minus offered, preserving desired order.
func missingSkills(desired, offered []uuid.UUID) []uuid.UUID {
	have := make(map[uuid.UUID]struct{}, len(offered))
	for _, id := range offered {
		have[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range desired {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
