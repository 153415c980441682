package dto

import (
	"time"

	"github.com/jimxer74/find-my-crew/internal/domain"
)

// BoundingBoxDTO mirrors domain.BoundingBox on the wire. Range and ordering
// checks happen in the use case so violations come back as a friendly message
// instead of a validation error.
type BoundingBoxDTO struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// ToDomain converts the DTO to a domain bounding box.
func (b *BoundingBoxDTO) ToDomain() *domain.BoundingBox {
	if b == nil {
		return nil
	}
	return &domain.BoundingBox{
		MinLng: b.MinLng,
		MinLat: b.MinLat,
		MaxLng: b.MaxLng,
		MaxLat: b.MaxLat,
	}
}

// AreaSearchRequest is a geographic leg search: at least one of the two
// rectangles must be present. The descriptions are caller-supplied free text
// echoed back in responses and explanation messages.
type AreaSearchRequest struct {
	Departure            *BoundingBoxDTO `json:"departure"`
	Arrival              *BoundingBoxDTO `json:"arrival"`
	DepartureDescription string          `json:"departure_description"`
	ArrivalDescription   string          `json:"arrival_description"`

	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`

	Skills     []string `json:"skills,omitempty"`
	RiskLevels []string `json:"risk_levels,omitempty" validate:"omitempty,dive,oneof=low medium high extreme"`
	Experience string   `json:"experience,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`

	// IncludeFull disables the default needs-crew filter.
	IncludeFull bool `json:"include_full"`

	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// FindLegsRequest is the non-geographic search variant.
type FindLegsRequest struct {
	JourneyID string   `json:"journey_id,omitempty" validate:"omitempty,uuid4"`
	Skills    []string `json:"skills,omitempty"`
	BoatType  string   `json:"boat_type,omitempty"`
	MakeModel string   `json:"make_model,omitempty"`

	StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	IncludeFull bool `json:"include_full"`

	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// JourneySummary is the parent journey as presented in search results.
type JourneySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// BoatSummary is the owning boat as presented in search results.
type BoatSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	MakeModel string   `json:"make_model,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// LegResult is one search hit. Skills, risk level and minimum experience are
// the effective values after the leg-overrides-journey merge.
type LegResult struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	CrewNeeded    int            `json:"crew_needed"`
	Skills        []string       `json:"skills,omitempty"`
	RiskLevel     string         `json:"risk_level,omitempty"`
	MinExperience string         `json:"min_experience,omitempty"`
	Journey       JourneySummary `json:"journey"`
	Boat          BoatSummary    `json:"boat"`
}

// SearchedAreas echoes the caller's free-text area descriptions.
type SearchedAreas struct {
	Departure string `json:"departure,omitempty"`
	Arrival   string `json:"arrival,omitempty"`
}

// DateAvailabilityHint explains an empty result whose spatial matches were
// all excluded by the requested date range. Field names follow the assistant
// protocol the surrounding product consumes.
type DateAvailabilityHint struct {
	SpatialMatchCount int    `json:"spatialMatchCount"`
	EarliestDate      string `json:"earliestDate,omitempty"`
	LatestDate        string `json:"latestDate,omitempty"`
	SearchedStartDate string `json:"searchedStartDate,omitempty"`
	SearchedEndDate   string `json:"searchedEndDate,omitempty"`
}

// LegSearchResponse is the result of either search variant.
type LegSearchResponse struct {
	Results       []LegResult           `json:"results"`
	Total         int                   `json:"total"`
	Message       string                `json:"message,omitempty"`
	SearchedAreas *SearchedAreas        `json:"searched_areas,omitempty"`
	DateHint      *DateAvailabilityHint `json:"date_hint,omitempty"`
}

// ConvertLegResult flattens a joined leg into a result row with effective
// attributes applied.
func ConvertLegResult(leg *domain.Leg) LegResult {
	eff := leg.Effective()

	result := LegResult{
		ID:            leg.ID,
		Name:          leg.Name,
		Description:   leg.Description,
		StartDate:     leg.StartDate,
		EndDate:       leg.EndDate,
		CrewNeeded:    leg.CrewNeeded,
		Skills:        eff.Skills,
		RiskLevel:     eff.RiskLevel,
		MinExperience: eff.MinExperience,
	}

	if leg.Journey != nil {
		result.Journey = JourneySummary{
			ID:     leg.Journey.ID,
			Name:   leg.Journey.Name,
			Status: leg.Journey.Status,
		}
		if leg.Journey.Boat != nil {
			b := leg.Journey.Boat
			result.Boat = BoatSummary{
				ID:        b.ID,
				Name:      b.Name,
				Type:      b.Type,
				MakeModel: b.MakeModel,
				Images:    b.Images,
			}
		}
	}

	return result
}
