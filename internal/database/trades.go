package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// Roles of a skill within trade_skills.
const (
	roleInitiator = "initiator"
	roleDesired   = "desired"
	roleResponder = "responder"
)

const tradeColumns = `
	t.id, t.initiator_id, t.responder_id, t.status,
	COALESCE(t.initiator_terms, ''), COALESCE(t.responder_terms, ''),
	COALESCE(t.title, ''), COALESCE(t.description, ''),
	t.created_at, t.completed_at
`

func scanTrade(row interface{ Scan(...any) error }) (*models.Trade, error) {
	var t models.Trade
	var responder uuid.NullUUID
	var completedAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.InitiatorID, &responder, &t.Status,
		&t.InitiatorTerms, &t.ResponderTerms,
		&t.Title, &t.Description,
		&t.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if responder.Valid {
		id := responder.UUID
		t.ResponderID = &id
	}
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	t.InitiatorSkills = []uuid.UUID{}
	t.DesiredSkills = []uuid.UUID{}
	t.ResponderSkills = []uuid.UUID{}
	return &t, nil
}

// loadTradeSkills fills the three skill sets of each trade.
func loadTradeSkills(ctx context.Context, q querier, trades ...*models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Trade, len(trades))
	ids := make([]uuid.UUID, 0, len(trades))
	for _, t := range trades {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	query := `
		SELECT trade_id, skill_id, role
		FROM trade_skills
		WHERE trade_id = ANY($1::uuid[])
		ORDER BY trade_id, role, position
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return fmt.Errorf("failed to load trade skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tradeID, skillID uuid.UUID
		var role string
		if err := rows.Scan(&tradeID, &skillID, &role); err != nil {
			return fmt.Errorf("failed to scan trade skill: %w", err)
		}
		t, ok := byID[tradeID]
		if !ok {
			continue
		}
		switch role {
		case roleInitiator:
			t.InitiatorSkills = append(t.InitiatorSkills, skillID)
		case roleDesired:
			t.DesiredSkills = append(t.DesiredSkills, skillID)
		case roleResponder:
			t.ResponderSkills = append(t.ResponderSkills, skillID)
		}
	}
	return rows.Err()
}

func insertTradeSkills(ctx context.Context, q querier, tradeID uuid.UUID, role string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		INSERT INTO trade_skills (trade_id, skill_id, role, position)
		SELECT $1, s.id, $3, s.ord
		FROM unnest($2::uuid[]) WITH ORDINALITY AS s(id, ord)
	`
	if _, err := q.ExecContext(ctx, query, tradeID, pq.Array(uuidStrings(ids)), role); err != nil {
		return fmt.Errorf("failed to insert %s skills for trade %s: %w", role, tradeID, err)
	}
	return nil
}

func getTrade(ctx context.Context, q querier, id uuid.UUID, lock bool) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades t WHERE t.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	t, err := scanTrade(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	if err := loadTradeSkills(ctx, q, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTrade retrieves a trade by id
func (db *DB) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, db.conn, id, false)
}

// ListTradesForUser lists the trades a user initiated or responds to, newest first
func (db *DB) ListTradesForUser(ctx context.Context, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Trade], error) {
	page = page.Normalize()
	result := models.PageResult[*models.Trade]{Page: page.Number, Results: []*models.Trade{}}

	filter := `
		(t.initiator_id = $1 OR t.responder_id = $1)
		AND ($2 = '' OR t.title ILIKE $3 OR t.description ILIKE $3)
	`
	countQuery := `SELECT COUNT(*) FROM trades t WHERE ` + filter
	if err := db.conn.QueryRowContext(ctx, countQuery, userID, search, likePattern(search)).Scan(&result.Count); err != nil {
		return result, fmt.Errorf("failed to count trades: %w", err)
	}

	query := `SELECT ` + tradeColumns + ` FROM trades t WHERE ` + filter + `
		ORDER BY t.created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, search, likePattern(search), page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan trade: %w", err)
		}
		result.Results = append(result.Results, t)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to list trades: %w", err)
	}
	if err := loadTradeSkills(ctx, db.conn, result.Results...); err != nil {
		return result, err
	}
	return result, nil
}

// InsertTrade stores a new trade and its skill sets
func (t *txStore) InsertTrade(ctx context.Context, tr *models.Trade) error {
	query := `
		INSERT INTO trades (
			id, initiator_id, responder_id, status,
			initiator_terms, responder_terms, title, description,
			created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := t.q.ExecContext(ctx, query,
		tr.ID, tr.InitiatorID, nullUUID(tr.ResponderID), tr.Status,
		tr.InitiatorTerms, nullString(tr.ResponderTerms), nullString(tr.Title), nullString(tr.Description),
		tr.CreatedAt, tr.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	if err := insertTradeSkills(ctx, t.q, tr.ID, roleInitiator, tr.InitiatorSkills); err != nil {
		return err
	}
	if err := insertTradeSkills(ctx, t.q, tr.ID, roleDesired, tr.DesiredSkills); err != nil {
		return err
	}
	return insertTradeSkills(ctx, t.q, tr.ID, roleResponder, tr.ResponderSkills)
}

// GetTrade retrieves a trade by id inside the transaction
func (t *txStore) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, t.q, id, false)
}

// LockTrade retrieves a trade and holds its row lock until the transaction ends
func (t *txStore) LockTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, t.q, id, true)
}

// UpdateTrade writes the mutable trade fields and replaces the responder skill snapshot
func (t *txStore) UpdateTrade(ctx context.Context, tr *models.Trade) error {
	query := `
		UPDATE trades SET
			responder_id = $2,
			status = $3,
			responder_terms = $4,
			title = $5,
			description = $6,
			completed_at = $7
		WHERE id = $1
	`
	result, err := t.q.ExecContext(ctx, query,
		tr.ID, nullUUID(tr.ResponderID), tr.Status,
		nullString(tr.ResponderTerms), nullString(tr.Title), nullString(tr.Description), tr.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", tr.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("trade not found: %s", tr.ID)
	}

	if _, err := t.q.ExecContext(ctx,
		`DELETE FROM trade_skills WHERE trade_id = $1 AND role = $2`, tr.ID, roleResponder); err != nil {
		return fmt.Errorf("failed to clear responder skills for trade %s: %w", tr.ID, err)
	}
	return insertTradeSkills(ctx, t.q, tr.ID, roleResponder, tr.ResponderSkills)
}

// DeleteTrade removes a trade and its skill sets. Queue entries, messages
// and the review are removed by the caller first.
func (t *txStore) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM trade_skills WHERE trade_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete skills for trade %s: %w", id, err)
	}
	result, err := t.q.ExecContext(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("trade not found: %s", id)
	}
	return nil
}
