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

const skillColumns = `id, name, COALESCE(description, ''), created_at`

func scanSkill(row interface{ Scan(...any) error }) (*models.Skill, error) {
	var s models.Skill
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func querySkills(ctx context.Context, q querier, query string, args ...any) ([]*models.Skill, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	var skills []*models.Skill
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// GetSkill retrieves a skill by id
func (db *DB) GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE id = $1`
	s, err := scanSkill(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill %s: %w", id, err)
	}
	return s, nil
}

// GetSkillByName retrieves a skill by its unique name
func (db *DB) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE name = $1`
	s, err := scanSkill(db.conn.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill %s: %w", name, err)
	}
	return s, nil
}

// ListSkills returns the whole catalog ordered by name
func (db *DB) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	return querySkills(ctx, db.conn, `SELECT `+skillColumns+` FROM skills ORDER BY name`)
}

// UpsertSkill inserts a catalog skill or refreshes its description.
// An empty description never overwrites an existing one.
func (db *DB) UpsertSkill(ctx context.Context, name, description string) error {
	query := `
		INSERT INTO skills (id, name, description, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET
			description = CASE WHEN EXCLUDED.description IS NULL THEN skills.description ELSE EXCLUDED.description END
	`

	_, err := db.conn.ExecContext(ctx, query, uuid.New(), name, nullString(description))
	if err != nil {
		return fmt.Errorf("failed to upsert skill %s: %w", name, err)
	}
	return nil
}

// SkillExists checks if a skill with the given name is in the catalog
func (db *DB) SkillExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM skills WHERE name = $1)`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check skill existence: %w", err)
	}
	return exists, nil
}

// GetSkills returns the skills among ids that exist, in the order given.
func (t *txStore) GetSkills(ctx context.Context, ids []uuid.UUID) ([]*models.Skill, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + skillColumns + `
		FROM skills
		WHERE id = ANY($1::uuid[])
		ORDER BY array_position($1::uuid[], id)
	`
	return querySkills(ctx, t.q, query, pq.Array(uuidStrings(ids)))
}
