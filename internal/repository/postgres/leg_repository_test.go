package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jimxer74/find-my-crew/internal/domain/repository"
)

func TestBuildFindLegsQuery_Defaults(t *testing.T) {
	query, args := buildFindLegsQuery(repository.LegFilter{})

	assert.Contains(t, query, "WHERE j.status = 'published'")
	assert.Contains(t, query, "ORDER BY l.start_date ASC NULLS LAST, l.id ASC")
	assert.NotContains(t, query, "crew_needed, 0) > 0")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestBuildFindLegsQuery_AllFilters(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2024-06-01")
	end, _ := time.Parse("2006-01-02", "2024-09-30")

	filter := repository.LegFilter{
		IDs:           []string{"leg-1", "leg-2"},
		JourneyID:     "journey-1",
		BoatType:      "catamaran",
		MakeModel:     "lagoon",
		OnlyNeedsCrew: true,
		StartAfter:    &start,
		StartBefore:   &end,
		Limit:         50,
	}

	query, args := buildFindLegsQuery(filter)

	assert.Contains(t, query, "l.id = ANY($1)")
	assert.Contains(t, query, "l.journey_id = $2")
	assert.Contains(t, query, "b.type = $3")
	assert.Contains(t, query, "b.make_model ILIKE $4")
	assert.Contains(t, query, "COALESCE(l.crew_needed, 0) > 0")
	assert.Contains(t, query, "l.start_date >= $5")
	assert.Contains(t, query, "l.start_date <= $6")
	assert.Contains(t, query, "LIMIT $7")

	assert.Len(t, args, 7)
	assert.Equal(t, "journey-1", args[1])
	assert.Equal(t, "catamaran", args[2])
	assert.Equal(t, "%lagoon%", args[3])
	assert.Equal(t, start, args[4])
	assert.Equal(t, end, args[5])
	assert.Equal(t, 50, args[6])
}

func TestBuildFindLegsQuery_OrderingComesBeforeLimit(t *testing.T) {
	query, args := buildFindLegsQuery(repository.LegFilter{Limit: 10})

	orderPos := strings.Index(query, "ORDER BY")
	limitPos := strings.Index(query, "LIMIT")

	assert.GreaterOrEqual(t, orderPos, 0)
	assert.Greater(t, limitPos, orderPos)
	assert.Equal(t, []interface{}{10}, args)
}
