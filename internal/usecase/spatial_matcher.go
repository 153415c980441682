package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/domain/repository"
)

// errMatcherUnavailable signals that a tier cannot serve this particular
// input and the driver should move on without treating it as a failure.
var errMatcherUnavailable = errors.New("matcher unavailable for this input")

// legIDMatcher finds the ids of legs whose first waypoint lies in the
// departure rectangle and whose last waypoint lies in the arrival rectangle.
// A nil rectangle means that side is unconstrained.
type legIDMatcher interface {
	Name() string
	Match(ctx context.Context, departure, arrival *domain.BoundingBox) ([]string, error)
}

// SpatialMatcher drives an ordered list of matching tiers: the server-side
// spatial function, the flat coordinate function, and finally a raw fetch
// with in-process geometry decoding. Tiers run strictly in order; the first
// one that succeeds wins.
type SpatialMatcher struct {
	tiers  []legIDMatcher
	logger *zap.Logger
}

func NewSpatialMatcher(legRepo repository.LegRepository, logger *zap.Logger) *SpatialMatcher {
	return &SpatialMatcher{
		tiers: []legIDMatcher{
			&boundsFunctionMatcher{repo: legRepo},
			&coordinateMatcher{repo: legRepo},
			&rawGeometryMatcher{repo: legRepo, logger: logger},
		},
		logger: logger,
	}
}

// MatchLegIDs returns the matched leg ids, or the last tier error when every
// tier failed. An empty id list from a working tier is a final answer, not a
// reason to fall back.
func (m *SpatialMatcher) MatchLegIDs(
	ctx context.Context,
	departure, arrival *domain.BoundingBox,
) ([]string, error) {
	if departure == nil && arrival == nil {
		return nil, fmt.Errorf("at least one bounding box is required")
	}

	var lastErr error
	for _, tier := range m.tiers {
		ids, err := tier.Match(ctx, departure, arrival)
		if err != nil {
			if errors.Is(err, errMatcherUnavailable) {
				m.logger.Debug("Spatial match tier not applicable",
					zap.String("tier", tier.Name()))
			} else {
				m.logger.Warn("Spatial match tier failed, trying next",
					zap.String("tier", tier.Name()),
					zap.Error(err))
				lastErr = err
			}
			continue
		}

		m.logger.Debug("Spatial match resolved",
			zap.String("tier", tier.Name()),
			zap.Int("matches", len(ids)))
		return ids, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errMatcherUnavailable
}

// boundsFunctionMatcher delegates the containment test to the store's
// spatial function. The function takes all eight bounds, so it only serves
// searches that constrain both ends of the route.
type boundsFunctionMatcher struct {
	repo repository.LegRepository
}

func (m *boundsFunctionMatcher) Name() string { return "spatial-function" }

func (m *boundsFunctionMatcher) Match(
	ctx context.Context,
	departure, arrival *domain.BoundingBox,
) ([]string, error) {
	if departure == nil || arrival == nil {
		return nil, errMatcherUnavailable
	}
	return m.repo.SearchLegsByBounds(ctx, *departure, *arrival)
}

// routeEndpoints are the first and last waypoint of one leg.
type routeEndpoints struct {
	first *domain.GeoPoint
	last  *domain.GeoPoint
	lastN int
}

func matchEndpoints(e routeEndpoints, departure, arrival *domain.BoundingBox) bool {
	if departure != nil && (e.first == nil || !departure.Contains(*e.first)) {
		return false
	}
	if arrival != nil && (e.last == nil || !arrival.Contains(*e.last)) {
		return false
	}
	return true
}

// coordinateMatcher pulls flat waypoint coordinates for all published legs
// and runs the containment test in process. The waypoint at index 0 is the
// departure, the highest-index waypoint the arrival.
type coordinateMatcher struct {
	repo repository.LegRepository
}

func (m *coordinateMatcher) Name() string { return "coordinate-function" }

func (m *coordinateMatcher) Match(
	ctx context.Context,
	departure, arrival *domain.BoundingBox,
) ([]string, error) {
	coords, err := m.repo.GetWaypointCoords(ctx)
	if err != nil {
		return nil, err
	}

	endpoints := make(map[string]*routeEndpoints)
	var order []string

	for _, c := range coords {
		e, ok := endpoints[c.LegID]
		if !ok {
			e = &routeEndpoints{lastN: -1}
			endpoints[c.LegID] = e
			order = append(order, c.LegID)
		}

		p := domain.GeoPoint{Lng: c.Lng, Lat: c.Lat}
		if c.Index == 0 {
			e.first = &p
		}
		if c.Index > e.lastN {
			e.lastN = c.Index
			e.last = &p
		}
	}

	var ids []string
	for _, legID := range order {
		if matchEndpoints(*endpoints[legID], departure, arrival) {
			ids = append(ids, legID)
		}
	}
	return ids, nil
}

// rawGeometryMatcher fetches legs with store-encoded waypoint geometries and
// decodes them leg by leg. A waypoint that fails to decode fails that side of
// the match; it never aborts the whole search.
type rawGeometryMatcher struct {
	repo   repository.LegRepository
	logger *zap.Logger
}

func (m *rawGeometryMatcher) Name() string { return "raw-geometry" }

func (m *rawGeometryMatcher) Match(
	ctx context.Context,
	departure, arrival *domain.BoundingBox,
) ([]string, error) {
	legs, err := m.repo.GetLegsWithGeometries(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, leg := range legs {
		// The endpoints are fixed by index before any decoding so that a
		// corrupt endpoint leaves its side nil instead of borrowing an
		// earlier waypoint.
		maxIndex := -1
		for _, wp := range leg.Waypoints {
			if wp.Index > maxIndex {
				maxIndex = wp.Index
			}
		}

		e := routeEndpoints{lastN: maxIndex}
		for _, wp := range leg.Waypoints {
			if wp.Index != 0 && wp.Index != maxIndex {
				continue
			}
			p, err := decodeWaypointPoint(wp.Geometry)
			if err != nil {
				m.logger.Debug("Skipping undecodable waypoint",
					zap.String("leg_id", leg.ID),
					zap.Int("index", wp.Index),
					zap.Error(err))
				continue
			}
			if wp.Index == 0 {
				e.first = p
			}
			if wp.Index == maxIndex {
				e.last = p
			}
		}

		if matchEndpoints(e, departure, arrival) {
			ids = append(ids, leg.ID)
		}
	}
	return ids, nil
}

// decodeWaypointPoint parses a store-encoded geometry into a point. PostGIS
// hands geometry columns back as hex-encoded EWKB; plain WKB is accepted for
// rows written without an SRID.
func decodeWaypointPoint(raw []byte) (*domain.GeoPoint, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}

	data := raw
	if decoded, err := hex.DecodeString(string(raw)); err == nil {
		data = decoded
	}

	geom, _, err := ewkb.Unmarshal(data)
	if err != nil {
		geom, err = wkb.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal geometry: %w", err)
		}
	}

	point, ok := geom.(orb.Point)
	if !ok {
		return nil, fmt.Errorf("geometry is %T, not a point", geom)
	}

	return &domain.GeoPoint{Lng: point.Lon(), Lat: point.Lat()}, nil
}
