package domain

import (
	"time"

	"github.com/lib/pq"
)

// Boat belongs to an owner and carries journeys.
type Boat struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Type      string         `json:"type" db:"type"` // sailboat, catamaran, motorboat, ...
	MakeModel string         `json:"make_model,omitempty" db:"make_model"`
	Images    pq.StringArray `json:"images,omitempty" db:"images"`
	OwnerID   string         `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
