package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

const queueColumns = `
	q.id, q.trade_id, q.user_id, u.username, q.status,
	q.applied_at, q.invited_at, q.accepted_at, q.rejected_at
`

const queueFrom = `FROM queue_entries q JOIN users u ON u.id = q.user_id`

func scanQueueEntry(row interface{ Scan(...any) error }) (*models.QueueEntry, error) {
	var e models.QueueEntry
	var applied, invited, accepted, rejected sql.NullTime
	err := row.Scan(
		&e.ID, &e.TradeID, &e.UserID, &e.Username, &e.Status,
		&applied, &invited, &accepted, &rejected,
	)
	if err != nil {
		return nil, err
	}
	e.AppliedAt = timePtr(applied)
	e.InvitedAt = timePtr(invited)
	e.AcceptedAt = timePtr(accepted)
	e.RejectedAt = timePtr(rejected)
	return &e, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}

func (t *txStore) queryQueueEntry(ctx context.Context, where string, args ...any) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` ` + queueFrom + ` WHERE ` + where
	e, err := scanQueueEntry(t.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return e, nil
}

// ListQueueEntries pages through a trade's queue, optionally filtered by candidate username
func (db *DB) ListQueueEntries(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.QueueEntry], error) {
	page = page.Normalize()
	result := models.PageResult[*models.QueueEntry]{Page: page.Number, Results: []*models.QueueEntry{}}

	filter := `q.trade_id = $1 AND ($2 = '' OR u.username ILIKE $3)`
	countQuery := `SELECT COUNT(*) ` + queueFrom + ` WHERE ` + filter
	if err := db.conn.QueryRowContext(ctx, countQuery, tradeID, search, likePattern(search)).Scan(&result.Count); err != nil {
		return result, fmt.Errorf("failed to count queue entries: %w", err)
	}

	query := `SELECT ` + queueColumns + ` ` + queueFrom + ` WHERE ` + filter + `
		ORDER BY COALESCE(q.applied_at, q.invited_at) DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := db.conn.QueryContext(ctx, query, tradeID, search, likePattern(search), page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		result.Results = append(result.Results, e)
	}
	return result, rows.Err()
}

// GetQueueEntry retrieves a queue entry by id
func (t *txStore) GetQueueEntry(ctx context.Context, id uuid.UUID) (*models.QueueEntry, error) {
	return t.queryQueueEntry(ctx, `q.id = $1`, id)
}

// FindQueueEntry retrieves the entry of a user on a trade, if any
func (t *txStore) FindQueueEntry(ctx context.Context, tradeID, userID uuid.UUID) (*models.QueueEntry, error) {
	return t.queryQueueEntry(ctx, `q.trade_id = $1 AND q.user_id = $2`, tradeID, userID)
}

// InsertQueueEntry stores a new application or invitation
func (t *txStore) InsertQueueEntry(ctx context.Context, e *models.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (
			id, trade_id, user_id, status,
			applied_at, invited_at, accepted_at, rejected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.q.ExecContext(ctx, query,
		e.ID, e.TradeID, e.UserID, e.Status,
		e.AppliedAt, e.InvitedAt, e.AcceptedAt, e.RejectedAt,
	)
	if isUniqueViolation(err) {
		return trading.NewValidationError("a queue entry for this user already exists on this trade")
	}
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

// UpdateQueueEntry writes the status and timestamps of a queue entry
func (t *txStore) UpdateQueueEntry(ctx context.Context, e *models.QueueEntry) error {
	query := `
		UPDATE queue_entries SET
			status = $2,
			accepted_at = $3,
			rejected_at = $4
		WHERE id = $1
	`
	result, err := t.q.ExecContext(ctx, query, e.ID, e.Status, e.AcceptedAt, e.RejectedAt)
	if err != nil {
		return fmt.Errorf("failed to update queue entry %s: %w", e.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("queue entry not found: %s", e.ID)
	}
	return nil
}

// DeleteQueueEntriesExcept removes every entry of the trade except keepID
func (t *txStore) DeleteQueueEntriesExcept(ctx context.Context, tradeID, keepID uuid.UUID) (int, error) {
	result, err := t.q.ExecContext(ctx,
		`DELETE FROM queue_entries WHERE trade_id = $1 AND id <> $2`, tradeID, keepID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue for trade %s: %w", tradeID, err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
