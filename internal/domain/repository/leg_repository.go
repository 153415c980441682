package repository

import (
	"context"
	"time"

	"github.com/jimxer74/find-my-crew/internal/domain"
)

// LegFilter describes a filtered leg query. Zero values mean "no filter".
// Only legs of published journeys are ever returned.
type LegFilter struct {
	// IDs restricts the query to a previously matched identifier set.
	IDs []string

	JourneyID string
	BoatType  string
	// MakeModel is matched as a case-insensitive substring of the boat's
	// make-and-model string. Skill, risk and experience filtering happen in
	// the use case on effective values and have no store-level counterpart.
	MakeModel string

	// OnlyNeedsCrew drops legs with no open crew slots at the store level.
	OnlyNeedsCrew bool

	// StartAfter/StartBefore bound the leg start date.
	StartAfter  *time.Time
	StartBefore *time.Time

	// Limit caps the number of rows fetched from the store.
	Limit int
}

// LegRepository is the read-side store boundary for legs, their journeys and
// boats. The three waypoint accessors back the spatial matcher's fallback
// tiers and are expected to degrade independently.
type LegRepository interface {
	// SearchLegsByBounds calls the server-side spatial function with the
	// eight bounds of the departure and arrival rectangles and returns the
	// matching leg ids.
	SearchLegsByBounds(ctx context.Context, departure, arrival domain.BoundingBox) ([]string, error)

	// GetWaypointCoords returns flat (leg, index, lng, lat) tuples for every
	// waypoint of every published leg.
	GetWaypointCoords(ctx context.Context) ([]domain.WaypointCoord, error)

	// GetLegsWithGeometries fetches published legs with nested waypoints
	// whose geometry is still store-encoded (hex EWKB).
	GetLegsWithGeometries(ctx context.Context) ([]*domain.Leg, error)

	// FindLegs returns published legs joined with journey and boat, ordered
	// by start date ascending with nulls last.
	FindLegs(ctx context.Context, filter LegFilter) ([]*domain.Leg, error)

	// GetByID returns one leg with its journey, boat and decoded waypoints.
	GetByID(ctx context.Context, id string) (*domain.Leg, error)

	// GetDateSpan returns the count and unfiltered date span of the
	// still-needing-crew published legs among ids.
	GetDateSpan(ctx context.Context, ids []string) (*domain.LegDateSpan, error)
}
