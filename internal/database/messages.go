package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

const messageColumns = `id, trade_id, sender_id, receiver_id, content, sent_at`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.TradeID, &m.SenderID, &m.ReceiverID, &m.Content, &m.SentAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMessage stores a chat message
func (db *DB) InsertMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (id, trade_id, sender_id, receiver_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.conn.ExecContext(ctx, query, m.ID, m.TradeID, m.SenderID, m.ReceiverID, m.Content, m.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by id
func (db *DB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m, err := scanMessage(db.conn.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return m, nil
}

// DeleteMessage removes a message by id
func (db *DB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("message not found with id: %s", id)
	}
	return nil
}

// ListMessages pages through a trade's conversation in the order it was sent
func (db *DB) ListMessages(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Message], error) {
	page = page.Normalize()
	result := models.PageResult[*models.Message]{Page: page.Number, Results: []*models.Message{}}

	filter := `trade_id = $1 AND ($2 = '' OR content ILIKE $3)`
	countQuery := `SELECT COUNT(*) FROM messages WHERE ` + filter
	if err := db.conn.QueryRowContext(ctx, countQuery, tradeID, search, likePattern(search)).Scan(&result.Count); err != nil {
		return result, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE ` + filter + `
		ORDER BY sent_at
		LIMIT $4 OFFSET $5
	`
	rows, err := db.conn.QueryContext(ctx, query, tradeID, search, likePattern(search), page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan message: %w", err)
		}
		result.Results = append(result.Results, m)
	}
	return result, rows.Err()
}

// DeleteTradeMessages removes the whole conversation of a trade
func (t *txStore) DeleteTradeMessages(ctx context.Context, tradeID uuid.UUID) (int, error) {
	result, err := t.q.ExecContext(ctx, `DELETE FROM messages WHERE trade_id = $1`, tradeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages for trade %s: %w", tradeID, err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
