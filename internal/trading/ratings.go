package trading

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// RecomputeRating sets the user's rating to the mean of every review naming
// them as reviewee, or 0.00 when there are none.
func (s *Service) RecomputeRating(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var rating decimal.Decimal
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		rating, err = recompute(ctx, tx, userID)
		return err
	})
	return rating, err
}

// recompute is a full scan over the reviewee's reviews. The user row is
// locked first so concurrent review edits recompute one after another.
func recompute(ctx context.Context, tx Tx, userID uuid.UUID) (decimal.Decimal, error) {
	user, err := tx.LockUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user == nil {
		return decimal.Zero, NewNotFoundError("user %s does not exist", userID)
	}
	ratings, err := tx.ListRevieweeRatings(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	mean := meanRating(ratings)
	if err := tx.SetUserRating(ctx, userID, mean); err != nil {
		return decimal.Zero, err
	}
	return mean, nil
}

func meanRating(ratings []decimal.Decimal) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero.Round(2)
	}
	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(r)
	}
	return sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(2)
}

// CreateReview lets the responder of a completed trade rate its initiator.
// A trade has at most one review.
func (s *Service) CreateReview(ctx context.Context, req CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		trade, err := tx.LockTrade(ctx, req.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			return NewNotFoundError("trade %s does not exist", req.TradeID)
		}
		if trade.Status != models.TradeStatusCompleted {
			return NewValidationError("trade is not completed")
		}
		if trade.ResponderID == nil || *trade.ResponderID != req.ReviewerID {
			return NewAuthorizationError("you are not the responder of this trade")
		}
		existing, err := tx.GetReviewByTrade(ctx, trade.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewValidationError("a review for this trade already exists")
		}

		now := s.now()
		review = &models.Review{
			ID:         uuid.New(),
			TradeID:    trade.ID,
			ReviewerID: req.ReviewerID,
			RevieweeID: trade.InitiatorID,
			Rating:     req.Rating,
			Feedback:   req.Feedback,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertReview(ctx, review); err != nil {
			return err
		}
		if _, err := recompute(ctx, tx, review.RevieweeID); err != nil {
			return err
		}

		out.reviews = append(out.reviews, "create")
		out.emit(models.EventReviewChanged, models.TradeEventData{
			TradeID: trade.ID, ActorID: req.ReviewerID, Status: trade.Status, ReviewID: &review.ID,
		})
		s.log.Audit("review created", "trade_id", trade.ID, "review_id", review.ID, "rating", review.Rating.StringFixed(2))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview changes a review's rating and feedback. Reviewer only.
func (s *Service) UpdateReview(ctx context.Context, req UpdateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var review *models.Review
	err := s.run(ctx, func(tx Tx, out *outcome) error {
		var err error
		review, err = tx.GetReview(ctx, req.ReviewID)
		if err != nil {
			return err
		}
		if review == nil {
			return NewNotFoundError("review %s does not exist", req.ReviewID)
		}
		if review.ReviewerID != req.ReviewerID {
			return NewAuthorizationError("you are not the author of this review")
		}

		review.Rating = req.Rating
		review.Feedback = req.Feedback
		review.UpdatedAt = s.now()
		if err := tx.UpdateReview(ctx, review); err != nil {
			return err
		}
		if _, err := recompute(ctx, tx, review.RevieweeID); err != nil {
			return err
		}

		out.reviews = append(out.reviews, "update")
		out.emit(models.EventReviewChanged, models.TradeEventData{
			TradeID: review.TradeID, ActorID: req.ReviewerID, ReviewID: &review.ID,
		})
		s.log.Audit("review updated", "review_id", review.ID, "rating", review.Rating.StringFixed(2))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review. Reviewer only.
func (s *Service) DeleteReview(ctx context.Context, reviewID, reviewerID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return newFieldError("review_id", "", "review ID is required")
	}

	return s.run(ctx, func(tx Tx, out *outcome) error {
		review, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review == nil {
			return NewNotFoundError("review %s does not exist", reviewID)
		}
		if review.ReviewerID != reviewerID {
			return NewAuthorizationError("you are not the author of this review")
		}
		if err := tx.DeleteReview(ctx, review.ID); err != nil {
			return err
		}
		if _, err := recompute(ctx, tx, review.RevieweeID); err != nil {
			return err
		}

		out.reviews = append(out.reviews, "delete")
		out.emit(models.EventReviewChanged, models.TradeEventData{
			TradeID: review.TradeID, ActorID: reviewerID, ReviewID: &review.ID,
		})
		s.log.Audit("review deleted", "review_id", review.ID, "reviewee_id", review.RevieweeID)
		return nil
	})
}

// ListReviews lists the reviews of a trade, optionally filtered by feedback text.
func (s *Service) ListReviews(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Review], error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return models.PageResult[*models.Review]{}, err
	}
	if trade == nil {
		return models.PageResult[*models.Review]{}, NewNotFoundError("trade %s does not exist", tradeID)
	}
	return s.store.ListReviews(ctx, tradeID, search, page.Normalize())
}
