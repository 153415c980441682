package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/domain/repository"
	"github.com/jimxer74/find-my-crew/internal/pkg/utils"
	"github.com/jimxer74/find-my-crew/internal/usecase/dto"
)

const (
	// Over-fetch factor: effective-attribute filters run in memory, so the
	// store query pulls more rows than the final cap.
	overFetchFactor = 3
	overFetchFloor  = 50
)

// LegSearchUseCase answers geographic and attribute searches over published
// legs. Each call is stateless and read-only: one-to-three sequential store
// queries followed by synchronous in-memory filtering.
type LegSearchUseCase struct {
	legRepo      repository.LegRepository
	cacheRepo    repository.CacheRepository
	matcher      *SpatialMatcher
	logger       *zap.Logger
	cacheTTL     time.Duration
	defaultLimit int
}

func NewLegSearchUseCase(
	legRepo repository.LegRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	cacheTTL time.Duration,
	defaultLimit int,
) *LegSearchUseCase {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &LegSearchUseCase{
		legRepo:      legRepo,
		cacheRepo:    cacheRepo,
		matcher:      NewSpatialMatcher(legRepo, logger),
		logger:       logger,
		cacheTTL:     cacheTTL,
		defaultLimit: defaultLimit,
	}
}

// SearchByArea finds published legs whose route endpoints fall inside the
// requested rectangles, then applies date and attribute filters.
//
// Validation problems (no rectangle, malformed rectangle) come back as an
// empty response with a message rather than an error, so the calling layer
// can show them directly.
func (uc *LegSearchUseCase) SearchByArea(ctx context.Context, req dto.AreaSearchRequest) (*dto.LegSearchResponse, error) {
	if req.Limit == 0 {
		req.Limit = uc.defaultLimit
	}

	if req.Departure == nil && req.Arrival == nil {
		return messageResponse("Please provide at least a departure or arrival area to search."), nil
	}

	departure := req.Departure.ToDomain()
	arrival := req.Arrival.ToDomain()

	if departure != nil && !departure.Valid() {
		return messageResponse("The departure area isn't a valid map rectangle. Please adjust it and try again."), nil
	}
	if arrival != nil && !arrival.Valid() {
		return messageResponse("The arrival area isn't a valid map rectangle. Please adjust it and try again."), nil
	}

	cacheKey := uc.searchCacheKey("area", req)
	if cached := uc.cachedResponse(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	matchedIDs, err := uc.matcher.MatchLegIDs(ctx, departure, arrival)
	if err != nil {
		uc.logger.Error("Spatial matching failed on all tiers", zap.Error(err))
		return nil, err
	}

	areas := &dto.SearchedAreas{
		Departure: req.DepartureDescription,
		Arrival:   req.ArrivalDescription,
	}

	if len(matchedIDs) == 0 {
		resp := messageResponse(fmt.Sprintf(
			"I couldn't find any sailing legs in **%s**. Try widening the search area.",
			searchLocationName(req.DepartureDescription, req.ArrivalDescription),
		))
		resp.SearchedAreas = areas
		uc.storeResponse(ctx, cacheKey, resp)
		return resp, nil
	}

	filter := repository.LegFilter{
		IDs:           matchedIDs,
		OnlyNeedsCrew: !req.IncludeFull,
		StartAfter:    parseSearchDate(req.StartDate),
		StartBefore:   parseSearchDate(req.EndDate),
		Limit:         overFetchLimit(req.Limit),
	}

	legs, err := uc.legRepo.FindLegs(ctx, filter)
	if err != nil {
		uc.logger.Error("Failed to fetch matched legs", zap.Error(err))
		return nil, err
	}

	results := uc.filterAndCap(legs, req.Skills, req.RiskLevels, req.Experience, req.Limit)

	resp := &dto.LegSearchResponse{
		Results:       results,
		Total:         len(results),
		SearchedAreas: areas,
	}

	if len(results) == 0 && (req.StartDate != "" || req.EndDate != "") {
		uc.attachDateHint(ctx, resp, matchedIDs, req)
	}

	uc.storeResponse(ctx, cacheKey, resp)
	return resp, nil
}

// FindLegs is the non-geographic search variant: direct filters on journey,
// skills, boat type and make/model substring.
func (uc *LegSearchUseCase) FindLegs(ctx context.Context, req dto.FindLegsRequest) (*dto.LegSearchResponse, error) {
	if req.Limit == 0 {
		req.Limit = uc.defaultLimit
	}

	cacheKey := uc.searchCacheKey("find", req)
	if cached := uc.cachedResponse(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	filter := repository.LegFilter{
		JourneyID:     req.JourneyID,
		BoatType:      req.BoatType,
		MakeModel:     req.MakeModel,
		OnlyNeedsCrew: !req.IncludeFull,
		StartAfter:    parseSearchDate(req.StartDate),
		StartBefore:   parseSearchDate(req.EndDate),
		Limit:         overFetchLimit(req.Limit),
	}

	legs, err := uc.legRepo.FindLegs(ctx, filter)
	if err != nil {
		uc.logger.Error("Failed to find legs", zap.Error(err))
		return nil, err
	}

	results := uc.filterAndCap(legs, req.Skills, nil, "", req.Limit)

	resp := &dto.LegSearchResponse{
		Results: results,
		Total:   len(results),
	}
	if len(results) == 0 {
		resp.Message = "No sailing legs matched your filters."
	}

	uc.storeResponse(ctx, cacheKey, resp)
	return resp, nil
}

// GetLeg returns one leg with its route and computed route length.
func (uc *LegSearchUseCase) GetLeg(ctx context.Context, id string) (*domain.Leg, error) {
	leg, err := uc.legRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	leg.RouteDistanceKm = routeDistanceKm(leg.Waypoints)
	return leg, nil
}

// routeDistanceKm sums the great-circle distance over consecutive decoded
// waypoints.
func routeDistanceKm(waypoints []domain.Waypoint) float64 {
	var total float64
	var prev *domain.GeoPoint
	for _, wp := range waypoints {
		if wp.Point == nil {
			continue
		}
		if prev != nil {
			total += utils.HaversineDistance(prev.Lat, prev.Lng, wp.Point.Lat, wp.Point.Lng)
		}
		prev = wp.Point
	}
	return total
}

// filterAndCap applies the in-memory effective-attribute filters and
// truncates to limit. Store ordering (start date ascending, nulls last) is
// preserved.
func (uc *LegSearchUseCase) filterAndCap(
	legs []*domain.Leg,
	requiredSkills []string,
	riskLevels []string,
	experience string,
	limit int,
) []dto.LegResult {
	sortLegsByStartDate(legs)

	allowedRisk := make(map[string]struct{}, len(riskLevels))
	for _, rl := range riskLevels {
		allowedRisk[rl] = struct{}{}
	}

	results := make([]dto.LegResult, 0, limit)
	for _, leg := range legs {
		if len(results) >= limit {
			break
		}

		eff := leg.Effective()

		if !hasAllSkills(eff.Skills, requiredSkills) {
			continue
		}
		if len(allowedRisk) > 0 {
			if _, ok := allowedRisk[eff.RiskLevel]; !ok {
				continue
			}
		}
		if experience != "" &&
			eff.MinExperience != "" &&
			domain.ExperienceRank(eff.MinExperience) > domain.ExperienceRank(experience) {
			continue
		}

		results = append(results, dto.ConvertLegResult(leg))
	}

	return results
}

// sortLegsByStartDate orders legs ascending by start date with undated legs
// last. The store query orders the same way; the stable re-sort keeps the
// contract independent of which fetch path produced the rows.
func sortLegsByStartDate(legs []*domain.Leg) {
	sort.SliceStable(legs, func(i, j int) bool {
		a, b := legs[i].StartDate, legs[j].StartDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

func hasAllSkills(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	for _, s := range want {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func overFetchLimit(limit int) int {
	fetch := limit * overFetchFactor
	if fetch < overFetchFloor {
		fetch = overFetchFloor
	}
	return fetch
}

func parseSearchDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func messageResponse(msg string) *dto.LegSearchResponse {
	return &dto.LegSearchResponse{
		Results: []dto.LegResult{},
		Message: msg,
	}
}

func (uc *LegSearchUseCase) searchCacheKey(kind string, req interface{}) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(data)
	return repository.SearchKeyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}

func (uc *LegSearchUseCase) cachedResponse(ctx context.Context, key string) *dto.LegSearchResponse {
	if uc.cacheRepo == nil || key == "" {
		return nil
	}

	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var resp dto.LegSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		uc.logger.Warn("Failed to unmarshal cached search response", zap.Error(err))
		return nil
	}
	return &resp
}

func (uc *LegSearchUseCase) storeResponse(ctx context.Context, key string, resp *dto.LegSearchResponse) {
	if uc.cacheRepo == nil || key == "" {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.cacheTTL); err != nil {
		uc.logger.Warn("Failed to cache search response", zap.Error(err))
	}
}
