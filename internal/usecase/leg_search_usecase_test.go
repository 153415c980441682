package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/domain/repository"
	"github.com/jimxer74/find-my-crew/internal/usecase"
	"github.com/jimxer74/find-my-crew/internal/usecase/dto"
)

func newSearchUseCase(legRepo repository.LegRepository, cacheRepo repository.CacheRepository) *usecase.LegSearchUseCase {
	return usecase.NewLegSearchUseCase(legRepo, cacheRepo, zap.NewNop(), 5*time.Minute, 10)
}

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestSearchByArea_NoRectangle(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)

	resp, err := uc.SearchByArea(context.Background(), dto.AreaSearchRequest{})

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Message, "departure or arrival area")
	mockRepo.AssertNotCalled(t, "SearchLegsByBounds")
	mockRepo.AssertNotCalled(t, "FindLegs")
}

func TestSearchByArea_InvalidRectangle(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)

	req := dto.AreaSearchRequest{
		Departure: &dto.BoundingBoxDTO{MinLng: 10, MinLat: 40, MaxLng: 5, MaxLat: 45},
	}

	resp, err := uc.SearchByArea(context.Background(), req)

	assert.NoError(t, err, "a malformed rectangle is a user problem, not a server error")
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Message, "departure area isn't a valid map rectangle")
	mockRepo.AssertNotCalled(t, "SearchLegsByBounds")
}

func TestSearchByArea_NoSpatialMatches(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{}, nil)

	req := dto.AreaSearchRequest{
		Departure:            boxDTO(medBox),
		Arrival:              boxDTO(balearicBox),
		DepartureDescription: "the Azores",
	}

	resp, err := uc.SearchByArea(ctx, req)

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Message, "couldn't find any sailing legs in **the Azores**")
	assert.Equal(t, "the Azores", resp.SearchedAreas.Departure)
	mockRepo.AssertNotCalled(t, "FindLegs")
}

func TestSearchByArea_MatcherFailurePropagates(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return(nil, errors.New("down"))
	mockRepo.On("GetWaypointCoords", ctx).Return(nil, errors.New("down"))
	mockRepo.On("GetLegsWithGeometries", ctx).Return(nil, errors.New("down"))

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
	})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestSearchByArea_SkillsFilter(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1", "leg-2", "leg-3"}, nil)

	legs := []*domain.Leg{
		{ID: "leg-1", Skills: []string{"navigation"}, CrewNeeded: 2},
		{ID: "leg-2", Skills: []string{"navigation", "cooking"}, CrewNeeded: 1},
		{ID: "leg-3", Skills: []string{"cooking"}, CrewNeeded: 1},
	}
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return(legs, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
		Skills:    []string{"navigation"},
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, "leg-1", resp.Results[0].ID)
	assert.Equal(t, "leg-2", resp.Results[1].ID)
	assert.Equal(t, 2, resp.Total)
}

func TestSearchByArea_JourneySkillsCountTowardRequirement(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1"}, nil)

	// The leg itself lists no skills; the parent journey supplies them.
	legs := []*domain.Leg{
		{
			ID:         "leg-1",
			CrewNeeded: 1,
			Journey:    &domain.Journey{ID: "j-1", Skills: []string{"navigation"}},
		},
	}
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return(legs, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
		Skills:    []string{"navigation"},
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results[0].Skills, "navigation")
}

func TestSearchByArea_RiskAndExperienceFilters(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1", "leg-2", "leg-3"}, nil)

	legs := []*domain.Leg{
		{ID: "leg-1", RiskLevel: domain.RiskLow, MinExperience: domain.ExperienceBeginner, CrewNeeded: 1},
		{ID: "leg-2", RiskLevel: domain.RiskHigh, MinExperience: domain.ExperienceBeginner, CrewNeeded: 1},
		{ID: "leg-3", RiskLevel: domain.RiskLow, MinExperience: domain.ExperienceExpert, CrewNeeded: 1},
	}
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return(legs, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure:  boxDTO(medBox),
		Arrival:    boxDTO(balearicBox),
		RiskLevels: []string{domain.RiskLow},
		Experience: domain.ExperienceIntermediate,
	})

	assert.NoError(t, err)
	// leg-2 fails the risk filter, leg-3 demands more experience than offered.
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, "leg-1", resp.Results[0].ID)
}

func TestSearchByArea_CrewFilterFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("needs-crew filter on by default", func(t *testing.T) {
		mockRepo := &MockLegRepository{}
		uc := newSearchUseCase(mockRepo, nil)

		mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
			Return([]string{"leg-1"}, nil)
		mockRepo.On("FindLegs", ctx, mock.MatchedBy(func(f repository.LegFilter) bool {
			return f.OnlyNeedsCrew && f.Limit == 50
		})).Return([]*domain.Leg{}, nil)

		_, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
			Departure: boxDTO(medBox),
			Arrival:   boxDTO(balearicBox),
		})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("include_full disables it", func(t *testing.T) {
		mockRepo := &MockLegRepository{}
		uc := newSearchUseCase(mockRepo, nil)

		mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
			Return([]string{"leg-1"}, nil)
		mockRepo.On("FindLegs", ctx, mock.MatchedBy(func(f repository.LegFilter) bool {
			return !f.OnlyNeedsCrew
		})).Return([]*domain.Leg{}, nil)

		_, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
			Departure:   boxDTO(medBox),
			Arrival:     boxDTO(balearicBox),
			IncludeFull: true,
		})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestSearchByArea_UndatedLegsSortLast(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1", "leg-2", "leg-3"}, nil)

	legs := []*domain.Leg{
		{ID: "leg-undated", CrewNeeded: 1},
		{ID: "leg-march", StartDate: datePtr("2024-03-01"), CrewNeeded: 1},
		{ID: "leg-january", StartDate: datePtr("2024-01-01"), CrewNeeded: 1},
	}
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return(legs, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, "leg-january", resp.Results[0].ID)
	assert.Equal(t, "leg-march", resp.Results[1].ID)
	assert.Equal(t, "leg-undated", resp.Results[2].ID)
}

func TestSearchByArea_DateHint(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	// Departure rectangle only: the matcher goes straight to coordinates.
	coords := []domain.WaypointCoord{
		{LegID: "leg-1", Index: 0, Lng: 2.17, Lat: 41.38},
		{LegID: "leg-1", Index: 1, Lng: 2.65, Lat: 39.57},
	}
	mockRepo.On("GetWaypointCoords", ctx).Return(coords, nil)

	// The August schedule falls outside the January window.
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return([]*domain.Leg{}, nil)
	mockRepo.On("GetDateSpan", ctx, []string{"leg-1"}).
		Return(&domain.LegDateSpan{
			Count:    1,
			Earliest: datePtr("2024-08-01"),
			Latest:   datePtr("2024-08-10"),
		}, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure:            boxDTO(medBox),
		DepartureDescription: "Barcelona",
		StartDate:            "2024-01-01",
		EndDate:              "2024-01-31",
	})

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)

	assert.Contains(t, resp.Message, "I found **1** sailing leg in **Barcelona**")
	assert.Contains(t, resp.Message, "it's scheduled for **Aug 1, 2024 to Aug 10, 2024**")
	assert.Contains(t, resp.Message, "outside your search dates (**Jan 1, 2024 to Jan 31, 2024**)")
	assert.Contains(t, resp.Message, "Would you like me to search with different dates?")

	if assert.NotNil(t, resp.DateHint) {
		assert.Equal(t, 1, resp.DateHint.SpatialMatchCount)
		assert.Equal(t, "2024-08-01", resp.DateHint.EarliestDate)
		assert.Equal(t, "2024-08-10", resp.DateHint.LatestDate)
		assert.Equal(t, "2024-01-01", resp.DateHint.SearchedStartDate)
		assert.Equal(t, "2024-01-31", resp.DateHint.SearchedEndDate)
	}
}

func TestSearchByArea_DateHintSkippedWhenNoneNeedCrew(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1"}, nil)
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return([]*domain.Leg{}, nil)
	mockRepo.On("GetDateSpan", ctx, []string{"leg-1"}).
		Return(&domain.LegDateSpan{Count: 0}, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
		StartDate: "2024-01-01",
	})

	assert.NoError(t, err)
	assert.Nil(t, resp.DateHint)
	assert.Empty(t, resp.Message)
}

func TestSearchByArea_CachedResponse(t *testing.T) {
	mockRepo := &MockLegRepository{}
	mockCache := &MockCacheRepository{}
	uc := newSearchUseCase(mockRepo, mockCache)
	ctx := context.Background()

	cached := dto.LegSearchResponse{
		Results: []dto.LegResult{{ID: "leg-cached"}},
		Total:   1,
	}
	data, err := json.Marshal(cached)
	assert.NoError(t, err)

	mockCache.On("Get", ctx, mock.MatchedBy(func(key string) bool {
		return len(key) > len(repository.SearchKeyPrefix) &&
			key[:len(repository.SearchKeyPrefix)] == repository.SearchKeyPrefix
	})).Return(data, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
	})

	assert.NoError(t, err)
	assert.Equal(t, "leg-cached", resp.Results[0].ID)
	mockRepo.AssertNotCalled(t, "SearchLegsByBounds")
	mockRepo.AssertNotCalled(t, "FindLegs")
}

func TestSearchByArea_StoresResponseInCache(t *testing.T) {
	mockRepo := &MockLegRepository{}
	mockCache := &MockCacheRepository{}
	uc := newSearchUseCase(mockRepo, mockCache)
	ctx := context.Background()

	mockCache.On("Get", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	mockCache.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, 5*time.Minute).
		Return(nil)

	mockRepo.On("SearchLegsByBounds", ctx, medBox, balearicBox).
		Return([]string{"leg-1"}, nil)
	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return([]*domain.Leg{{ID: "leg-1", CrewNeeded: 1}}, nil)

	resp, err := uc.SearchByArea(ctx, dto.AreaSearchRequest{
		Departure: boxDTO(medBox),
		Arrival:   boxDTO(balearicBox),
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	mockCache.AssertExpectations(t)
}

func TestFindLegs(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	legs := []*domain.Leg{
		{ID: "leg-1", CrewNeeded: 1, Journey: &domain.Journey{ID: "j-1", Name: "Atlantic crossing"}},
	}
	mockRepo.On("FindLegs", ctx, mock.MatchedBy(func(f repository.LegFilter) bool {
		return f.BoatType == "catamaran" && f.OnlyNeedsCrew
	})).Return(legs, nil)

	resp, err := uc.FindLegs(ctx, dto.FindLegsRequest{BoatType: "catamaran"})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, "Atlantic crossing", resp.Results[0].Journey.Name)
}

func TestFindLegs_Empty(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("FindLegs", ctx, mock.AnythingOfType("repository.LegFilter")).
		Return([]*domain.Leg{}, nil)

	resp, err := uc.FindLegs(ctx, dto.FindLegsRequest{MakeModel: "beneteau"})

	assert.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "No sailing legs matched your filters.", resp.Message)
}

func TestGetLeg_ComputesRouteDistance(t *testing.T) {
	mockRepo := &MockLegRepository{}
	uc := newSearchUseCase(mockRepo, nil)
	ctx := context.Background()

	leg := &domain.Leg{
		ID: "leg-1",
		Waypoints: []domain.Waypoint{
			{Index: 0, Point: &domain.GeoPoint{Lng: 0, Lat: 0}},
			{Index: 1, Point: &domain.GeoPoint{Lng: 1, Lat: 0}},
			{Index: 2, Point: &domain.GeoPoint{Lng: 2, Lat: 0}},
		},
	}
	mockRepo.On("GetByID", ctx, "leg-1").Return(leg, nil)

	got, err := uc.GetLeg(ctx, "leg-1")

	assert.NoError(t, err)
	// Two one-degree hops along the equator, ~111.19 km each.
	assert.InDelta(t, 222.4, got.RouteDistanceKm, 0.5)
}

func boxDTO(b domain.BoundingBox) *dto.BoundingBoxDTO {
	return &dto.BoundingBoxDTO{
		MinLng: b.MinLng,
		MinLat: b.MinLat,
		MaxLng: b.MaxLng,
		MaxLat: b.MaxLat,
	}
}
