package domain

import (
	"time"

	"github.com/lib/pq"
)

// Leg is a single sailing passage between two points, part of a journey.
type Leg struct {
	ID            string         `json:"id" db:"id"`
	JourneyID     string         `json:"journey_id" db:"journey_id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description,omitempty" db:"description"`
	StartDate     *time.Time     `json:"start_date,omitempty" db:"start_date"`
	EndDate       *time.Time     `json:"end_date,omitempty" db:"end_date"`
	CrewNeeded    int            `json:"crew_needed" db:"crew_needed"`
	Skills        pq.StringArray `json:"skills" db:"skills"`
	RiskLevel     string         `json:"risk_level,omitempty" db:"risk_level"`
	MinExperience string         `json:"min_experience,omitempty" db:"min_experience"`
	Waypoints     []Waypoint     `json:"waypoints,omitempty" db:"-"`
	Journey       *Journey       `json:"journey,omitempty" db:"-"`

	// RouteDistanceKm is the great-circle length of the route, filled on the
	// detail path once waypoints are decoded.
	RouteDistanceKm float64 `json:"route_distance_km,omitempty" db:"-"`
}

// Waypoint is one ordered point on a leg's route. Geometry holds the raw
// store-encoded point (hex EWKB) on the direct-fetch path; Point is filled
// once decoding succeeded.
type Waypoint struct {
	LegID    string    `json:"leg_id" db:"leg_id"`
	Index    int       `json:"index" db:"waypoint_index"`
	Point    *GeoPoint `json:"point,omitempty" db:"-"`
	Geometry []byte    `json:"-" db:"geom"`
}

// WaypointCoord is one row of the coordinate RPC: a flat
// (leg, index, lng, lat) tuple for every waypoint of every published leg.
type WaypointCoord struct {
	LegID string  `db:"leg_id"`
	Index int     `db:"waypoint_index"`
	Lng   float64 `db:"lng"`
	Lat   float64 `db:"lat"`
}

// LegDateSpan is the unfiltered schedule span across a set of legs, used to
// explain empty results when the date range excluded every spatial match.
type LegDateSpan struct {
	Count    int        `db:"count"`
	Earliest *time.Time `db:"earliest"`
	Latest   *time.Time `db:"latest"`
}

// NeedsCrew reports whether the leg still has open crew slots.
func (l *Leg) NeedsCrew() bool {
	return l.CrewNeeded > 0
}
