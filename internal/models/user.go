package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxOfferedSkills caps the size of a user's offered-skill set.
const MaxOfferedSkills = 10

// User is an account as seen by the trade core.
type User struct {
	ID            uuid.UUID       `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email,omitempty"`
	Rating        decimal.Decimal `json:"rating"`
	SkillsOffered []*Skill        `json:"skills_offered,omitempty"`
}
