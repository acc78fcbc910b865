package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

const userSearchFilter = `
	($1 = '' OR EXISTS (
		SELECT 1 FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = u.id AND s.name ILIKE $2
	))
`

// ListUsers lists users by rating, highest first. A non-empty search keeps
// only users offering a skill whose name contains it.
func (db *DB) ListUsers(ctx context.Context, search string, page models.Page) (models.PageResult[*models.User], error) {
	page = page.Normalize()
	result := models.PageResult[*models.User]{Page: page.Number, Results: []*models.User{}}

	countQuery := `SELECT COUNT(*) FROM users u WHERE ` + userSearchFilter
	if err := db.conn.QueryRowContext(ctx, countQuery, search, likePattern(search)).Scan(&result.Count); err != nil {
		return result, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT u.id, u.username, COALESCE(u.email, ''), u.rating
		FROM users u
		WHERE ` + userSearchFilter + `
		ORDER BY u.rating DESC, u.username
		LIMIT $3 OFFSET $4
	`
	rows, err := db.conn.QueryContext(ctx, query, search, likePattern(search), page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	byID := map[uuid.UUID]*models.User{}
	var ids []uuid.UUID
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Rating); err != nil {
			return result, fmt.Errorf("failed to scan user: %w", err)
		}
		result.Results = append(result.Results, &u)
		byID[u.ID] = &u
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}
	if len(ids) == 0 {
		return result, nil
	}

	skillsQuery := `
		SELECT us.user_id, s.id, s.name, COALESCE(s.description, ''), s.created_at
		FROM user_skills us
		JOIN skills s ON s.id = us.skill_id
		WHERE us.user_id = ANY($1::uuid[])
		ORDER BY s.name
	`
	skillRows, err := db.conn.QueryContext(ctx, skillsQuery, pq.Array(uuidStrings(ids)))
	if err != nil {
		return result, fmt.Errorf("failed to load offered skills: %w", err)
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var userID uuid.UUID
		var s models.Skill
		if err := skillRows.Scan(&userID, &s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return result, fmt.Errorf("failed to scan offered skill: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.SkillsOffered = append(u.SkillsOffered, &s)
		}
	}
	return result, skillRows.Err()
}

func (t *txStore) getUser(ctx context.Context, id uuid.UUID, lock bool) (*models.User, error) {
	query := `SELECT id, username, COALESCE(email, ''), rating FROM users WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var u models.User
	err := t.q.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &u, nil
}

// GetUser retrieves a user by id
func (t *txStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return t.getUser(ctx, id, false)
}

// LockUser retrieves a user and holds its row lock until the transaction ends
func (t *txStore) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return t.getUser(ctx, id, true)
}

// OfferedSkillIDs returns the ids of the skills a user currently offers
func (t *txStore) OfferedSkillIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT skill_id FROM user_skills WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offered skills: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan offered skill: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddOfferedSkill adds a skill to the user's offered set
func (t *txStore) AddOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO user_skills (user_id, skill_id, created_at) VALUES ($1, $2, NOW())`,
		userID, skillID)
	if isUniqueViolation(err) {
		return trading.NewValidationError("you have already added this skill")
	}
	if err != nil {
		return fmt.Errorf("failed to add offered skill: %w", err)
	}
	return nil
}

// RemoveOfferedSkill drops a skill from the user's offered set
func (t *txStore) RemoveOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM user_skills WHERE user_id = $1 AND skill_id = $2`, userID, skillID)
	if err != nil {
		return fmt.Errorf("failed to remove offered skill: %w", err)
	}
	return nil
}

// SetUserRating stores the user's aggregate rating
func (t *txStore) SetUserRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error {
	_, err := t.q.ExecContext(ctx, `UPDATE users SET rating = $2 WHERE id = $1`, userID, rating.StringFixed(2))
	if err != nil {
		return fmt.Errorf("failed to set rating for user %s: %w", userID, err)
	}
	return nil
}
