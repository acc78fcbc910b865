package trading

import (
	"context"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// AddOfferedSkill adds a catalog skill to the user's offered set.
func (s *Service) AddOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) (*models.Skill, error) {
	if skillID == uuid.Nil {
		return nil, newFieldError("skill_id", "", "skill ID is required")
	}

	var skill *models.Skill
	err := s.store.WithTx(ctx, func(tx Tx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFoundError("user %s does not exist", userID)
		}
		skills, err := tx.GetSkills(ctx, []uuid.UUID{skillID})
		if err != nil {
			return err
		}
		if len(skills) == 0 {
			return NewNotFoundError("skill %s does not exist", skillID)
		}
		skill = skills[0]

		offered, err := tx.OfferedSkillIDs(ctx, userID)
		if err != nil {
			return err
		}
		if len(offered) >= models.MaxOfferedSkills {
			return newFieldError("skill_id", skillID.String(), "you cannot add more than %d skills", models.MaxOfferedSkills)
		}
		for _, id := range offered {
			if id == skillID {
				return newFieldError("skill_id", skillID.String(), "you have already added this skill")
			}
		}
		return tx.AddOfferedSkill(ctx, userID, skillID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("offered skill added", "user_id", userID, "skill", skill.Name)
	return skill, nil
}

// RemoveOfferedSkill drops a skill from the user's offered set. Trades
// already holding the skill keep their snapshot.
func (s *Service) RemoveOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) (*models.Skill, error) {
	if skillID == uuid.Nil {
		return nil, newFieldError("skill_id", "", "skill ID is required")
	}

	var skill *models.Skill
	err := s.store.WithTx(ctx, func(tx Tx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewNotFoundError("user %s does not exist", userID)
		}
		skills, err := tx.GetSkills(ctx, []uuid.UUID{skillID})
		if err != nil {
			return err
		}
		if len(skills) == 0 {
			return NewNotFoundError("skill %s does not exist", skillID)
		}
		skill = skills[0]

		offered, err := tx.OfferedSkillIDs(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range offered {
			if id == skillID {
				return tx.RemoveOfferedSkill(ctx, userID, skillID)
			}
		}
		return newFieldError("skill_id", skillID.String(), "you do not have this skill in your profile")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("offered skill removed", "user_id", userID, "skill", skill.Name)
	return skill, nil
}

// ListUsers lists users by rating, optionally only those offering a skill
// whose name matches search.
func (s *Service) ListUsers(ctx context.Context, search string, page models.Page) (models.PageResult[*models.User], error) {
	return s.store.ListUsers(ctx, search, page.Normalize())
}

// ListSkills returns the whole catalog.
func (s *Service) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	return s.store.ListSkills(ctx)
}

// GetSkill looks a skill up by id.
func (s *Service) GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	skill, err := s.store.GetSkill(ctx, id)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, NewNotFoundError("skill %s does not exist", id)
	}
	return skill, nil
}

// GetSkillByName looks a skill up by its unique name.
func (s *Service) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	skill, err := s.store.GetSkillByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, NewNotFoundError("skill %q does not exist", name)
	}
	return skill, nil
}
