package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

const reviewColumns = `id, trade_id, reviewer_id, reviewee_id, rating, COALESCE(feedback, ''), created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.TradeID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Feedback, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *txStore) queryReview(ctx context.Context, where string, arg any) (*models.Review, error) {
	r, err := scanReview(t.q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return r, nil
}

// ListReviews pages through a trade's reviews, optionally filtered by feedback text
func (db *DB) ListReviews(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Review], error) {
	page = page.Normalize()
	result := models.PageResult[*models.Review]{Page: page.Number, Results: []*models.Review{}}

	filter := `trade_id = $1 AND ($2 = '' OR feedback ILIKE $3)`
	countQuery := `SELECT COUNT(*) FROM reviews WHERE ` + filter
	if err := db.conn.QueryRowContext(ctx, countQuery, tradeID, search, likePattern(search)).Scan(&result.Count); err != nil {
		return result, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + filter + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := db.conn.QueryContext(ctx, query, tradeID, search, likePattern(search), page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan review: %w", err)
		}
		result.Results = append(result.Results, r)
	}
	return result, rows.Err()
}

// GetReview retrieves a review by id
func (t *txStore) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return t.queryReview(ctx, `id = $1`, id)
}

// GetReviewByTrade retrieves the review of a trade, if any
func (t *txStore) GetReviewByTrade(ctx context.Context, tradeID uuid.UUID) (*models.Review, error) {
	return t.queryReview(ctx, `trade_id = $1`, tradeID)
}

// InsertReview stores a new review
func (t *txStore) InsertReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (id, trade_id, reviewer_id, reviewee_id, rating, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.q.ExecContext(ctx, query,
		r.ID, r.TradeID, r.ReviewerID, r.RevieweeID, r.Rating.StringFixed(2), nullString(r.Feedback), r.CreatedAt, r.UpdatedAt)
	if isUniqueViolation(err) {
		return trading.NewValidationError("a review for this trade already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// UpdateReview writes a review's rating and feedback
func (t *txStore) UpdateReview(ctx context.Context, r *models.Review) error {
	result, err := t.q.ExecContext(ctx,
		`UPDATE reviews SET rating = $2, feedback = $3, updated_at = $4 WHERE id = $1`,
		r.ID, r.Rating.StringFixed(2), nullString(r.Feedback), r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review %s: %w", r.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("review not found: %s", r.ID)
	}
	return nil
}

// DeleteReview removes a review
func (t *txStore) DeleteReview(ctx context.Context, id uuid.UUID) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	return nil
}

// ListRevieweeRatings returns every rating given to a user
func (t *txStore) ListRevieweeRatings(ctx context.Context, userID uuid.UUID) ([]decimal.Decimal, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT rating FROM reviews WHERE reviewee_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var ratings []decimal.Decimal
	for rows.Next() {
		var r decimal.Decimal
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
