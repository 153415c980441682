package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/domain"
	"github.com/jimxer74/find-my-crew/internal/domain/repository"
	"github.com/jimxer74/find-my-crew/internal/pkg/errors"
)

type legRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewLegRepository creates a LegRepository backed by Postgres/PostGIS.
func NewLegRepository(db *DB) repository.LegRepository {
	return &legRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// SearchLegsByBounds calls the server-side spatial function. The function
// checks that a leg's first waypoint lies in the departure rectangle and its
// last waypoint in the arrival rectangle.
func (r *legRepository) SearchLegsByBounds(
	ctx context.Context,
	departure, arrival domain.BoundingBox,
) ([]string, error) {
	query := `
		SELECT id FROM search_legs_by_bounds(
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
	`

	rows, err := r.db.QueryContext(ctx, query,
		departure.MinLng, departure.MinLat, departure.MaxLng, departure.MaxLat,
		arrival.MinLng, arrival.MinLat, arrival.MaxLng, arrival.MaxLat,
	)
	if err != nil {
		r.logger.Warn("Spatial search function failed", zap.Error(err))
		return nil, fmt.Errorf("search_legs_by_bounds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan leg id", zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("search_legs_by_bounds rows: %w", err)
	}

	return ids, nil
}

// GetWaypointCoords returns flat coordinate tuples for all published legs.
func (r *legRepository) GetWaypointCoords(ctx context.Context) ([]domain.WaypointCoord, error) {
	query := `SELECT leg_id, waypoint_index, lng, lat FROM get_leg_waypoint_coords()`

	var coords []domain.WaypointCoord
	if err := r.db.SelectContext(ctx, &coords, query); err != nil {
		r.logger.Warn("Waypoint coordinate function failed", zap.Error(err))
		return nil, fmt.Errorf("get_leg_waypoint_coords: %w", err)
	}

	return coords, nil
}

// GetLegsWithGeometries fetches published legs with their waypoints still
// geometry-encoded, for the in-process containment fallback.
func (r *legRepository) GetLegsWithGeometries(ctx context.Context) ([]*domain.Leg, error) {
	query := `
		SELECT l.id, l.journey_id, l.name, w.waypoint_index, w.geom
		FROM legs l
		JOIN journeys j ON j.id = l.journey_id AND j.status = 'published'
		JOIN waypoints w ON w.leg_id = l.id
		ORDER BY l.id, w.waypoint_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Warn("Raw leg fetch failed", zap.Error(err))
		return nil, fmt.Errorf("legs with geometries: %w", err)
	}
	defer rows.Close()

	var legs []*domain.Leg
	byID := make(map[string]*domain.Leg)

	for rows.Next() {
		var (
			legID     string
			journeyID string
			name      string
			wpIndex   int
			geom      []byte
		)
		if err := rows.Scan(&legID, &journeyID, &name, &wpIndex, &geom); err != nil {
			r.logger.Error("Failed to scan leg waypoint row", zap.Error(err))
			continue
		}

		leg, ok := byID[legID]
		if !ok {
			leg = &domain.Leg{ID: legID, JourneyID: journeyID, Name: name}
			byID[legID] = leg
			legs = append(legs, leg)
		}
		leg.Waypoints = append(leg.Waypoints, domain.Waypoint{
			LegID:    legID,
			Index:    wpIndex,
			Geometry: geom,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("legs with geometries rows: %w", err)
	}

	return legs, nil
}

const legSelectColumns = `
	l.id, l.journey_id, l.name, COALESCE(l.description, ''),
	l.start_date, l.end_date, COALESCE(l.crew_needed, 0),
	l.skills, COALESCE(l.risk_level, ''), COALESCE(l.min_experience, ''),
	j.id, j.name, j.status, j.skills,
	COALESCE(j.risk_level, ''), COALESCE(j.min_experience, ''), j.boat_id,
	b.id, b.name, COALESCE(b.type, ''), COALESCE(b.make_model, ''), b.images
`

// buildFindLegsQuery assembles the filtered leg query. Split out so the
// predicate logic is testable without a database.
func buildFindLegsQuery(filter repository.LegFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + legSelectColumns + `
		FROM legs l
		JOIN journeys j ON j.id = l.journey_id
		JOIN boats b ON b.id = j.boat_id
		WHERE j.status = 'published'`)

	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.IDs) > 0 {
		sb.WriteString(" AND l.id = ANY(" + arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.JourneyID != "" {
		sb.WriteString(" AND l.journey_id = " + arg(filter.JourneyID))
	}
	if filter.BoatType != "" {
		sb.WriteString(" AND b.type = " + arg(filter.BoatType))
	}
	if filter.MakeModel != "" {
		sb.WriteString(" AND b.make_model ILIKE " + arg("%"+filter.MakeModel+"%"))
	}
	if filter.OnlyNeedsCrew {
		sb.WriteString(" AND COALESCE(l.crew_needed, 0) > 0")
	}
	if filter.StartAfter != nil {
		sb.WriteString(" AND l.start_date >= " + arg(*filter.StartAfter))
	}
	if filter.StartBefore != nil {
		sb.WriteString(" AND l.start_date <= " + arg(*filter.StartBefore))
	}

	sb.WriteString(" ORDER BY l.start_date ASC NULLS LAST, l.id ASC")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}

	return sb.String(), args
}

// FindLegs returns published legs joined with journey and boat. Skills, risk
// and experience filtering happen in the use case on the effective values, so
// they are intentionally absent here.
func (r *legRepository) FindLegs(ctx context.Context, filter repository.LegFilter) ([]*domain.Leg, error) {
	query, args := buildFindLegsQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query legs", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	var legs []*domain.Leg
	for rows.Next() {
		leg, err := scanJoinedLeg(rows)
		if err != nil {
			r.logger.Error("Failed to scan leg row", zap.Error(err))
			continue
		}
		legs = append(legs, leg)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating leg rows", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return legs, nil
}

func scanJoinedLeg(rows *sql.Rows) (*domain.Leg, error) {
	var (
		leg     domain.Leg
		journey domain.Journey
		boat    domain.Boat
	)

	err := rows.Scan(
		&leg.ID, &leg.JourneyID, &leg.Name, &leg.Description,
		&leg.StartDate, &leg.EndDate, &leg.CrewNeeded,
		&leg.Skills, &leg.RiskLevel, &leg.MinExperience,
		&journey.ID, &journey.Name, &journey.Status, &journey.Skills,
		&journey.RiskLevel, &journey.MinExperience, &journey.BoatID,
		&boat.ID, &boat.Name, &boat.Type, &boat.MakeModel, &boat.Images,
	)
	if err != nil {
		return nil, err
	}

	journey.Boat = &boat
	leg.Journey = &journey
	return &leg, nil
}

// GetByID returns one leg with journey, boat and decoded waypoints.
func (r *legRepository) GetByID(ctx context.Context, id string) (*domain.Leg, error) {
	query := `SELECT ` + legSelectColumns + `
		FROM legs l
		JOIN journeys j ON j.id = l.journey_id
		JOIN boats b ON b.id = j.boat_id
		WHERE l.id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to get leg by id", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.ErrLegNotFound
	}

	leg, err := scanJoinedLeg(rows)
	if err != nil {
		r.logger.Error("Failed to scan leg", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	rows.Close()

	wpQuery := `
		SELECT leg_id, waypoint_index,
			ST_X(geom::geometry) AS lng, ST_Y(geom::geometry) AS lat
		FROM waypoints
		WHERE leg_id = $1
		ORDER BY waypoint_index ASC
	`
	var coords []domain.WaypointCoord
	if err := r.db.SelectContext(ctx, &coords, wpQuery, id); err != nil {
		r.logger.Error("Failed to load waypoints", zap.String("id", id), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	for _, c := range coords {
		leg.Waypoints = append(leg.Waypoints, domain.Waypoint{
			LegID: c.LegID,
			Index: c.Index,
			Point: &domain.GeoPoint{Lng: c.Lng, Lat: c.Lat},
		})
	}

	return leg, nil
}

// GetDateSpan returns the count and unfiltered schedule span of the published,
// still-needing-crew legs among ids.
func (r *legRepository) GetDateSpan(ctx context.Context, ids []string) (*domain.LegDateSpan, error) {
	if len(ids) == 0 {
		return &domain.LegDateSpan{}, nil
	}

	query := `
		SELECT COUNT(*), MIN(l.start_date), MAX(l.end_date)
		FROM legs l
		JOIN journeys j ON j.id = l.journey_id
		WHERE l.id = ANY($1)
			AND j.status = 'published'
			AND COALESCE(l.crew_needed, 0) > 0
	`

	var span domain.LegDateSpan
	err := r.db.QueryRowContext(ctx, query, pq.Array(ids)).Scan(
		&span.Count, &span.Earliest, &span.Latest,
	)
	if err != nil {
		r.logger.Error("Failed to query leg date span", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	return &span, nil
}
