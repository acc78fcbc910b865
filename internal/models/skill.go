package models

import (
	"time"

	"github.com/google/uuid"
)

// Skill is an entry in the skill catalog. Skills are reference data and are
// never mutated by trade operations.
type Skill struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SkillNames returns the names of the given skills in order.
func SkillNames(skills []*Skill) []string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return names
}
