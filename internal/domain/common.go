package domain

import "github.com/jimxer74/find-my-crew/internal/pkg/utils"

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lng float64 `json:"lng" db:"lng"`
	Lat float64 `json:"lat" db:"lat"`
}

// BoundingBox is an axis-aligned lng/lat rectangle used as a spatial search
// filter. It is built per request and never persisted.
type BoundingBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Valid reports whether all four corners are real WGS84 coordinates and the
// bounds are correctly ordered (min <= max on both axes).
func (b BoundingBox) Valid() bool {
	if !utils.ValidateCoordinates(b.MinLat, b.MinLng) ||
		!utils.ValidateCoordinates(b.MaxLat, b.MaxLng) {
		return false
	}
	return b.MinLng <= b.MaxLng && b.MinLat <= b.MaxLat
}

// Contains reports whether p lies inside the box. Bounds are inclusive, so a
// point exactly on an edge matches.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// StreamMessage is a raw message read from a Redis stream.
type StreamMessage struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// LegUpdateEvent is published to the legs update stream whenever a leg or its
// parent journey changes in a way that can affect search results.
type LegUpdateEvent struct {
	LegID     string `json:"leg_id"`
	JourneyID string `json:"journey_id,omitempty"`
	Action    string `json:"action"` // created, updated, deleted
}
