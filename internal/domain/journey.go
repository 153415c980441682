package domain

import (
	"time"

	"github.com/lib/pq"
)

// Journey lifecycle states. Only published journeys are visible to search.
const (
	JourneyStatusDraft     = "draft"
	JourneyStatusPublished = "published"
	JourneyStatusArchived  = "archived"
)

// Journey is a multi-leg voyage owned by a boat.
type Journey struct {
	ID            string         `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description,omitempty" db:"description"`
	Status        string         `json:"status" db:"status"`
	Skills        pq.StringArray `json:"skills" db:"skills"`
	RiskLevel     string         `json:"risk_level,omitempty" db:"risk_level"`
	MinExperience string         `json:"min_experience,omitempty" db:"min_experience"`
	BoatID        string         `json:"boat_id" db:"boat_id"`
	Boat          *Boat          `json:"boat,omitempty" db:"-"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
