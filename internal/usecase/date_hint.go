package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jimxer74/find-my-crew/internal/usecase/dto"
)

const hintDateLayout = "Jan 2, 2006"

// attachDateHint explains an empty result that had spatial matches: the legs
// exist where the user asked, just not when. It re-queries the unfiltered
// schedule span of the matched legs and, when any are still open for crew,
// attaches a message plus the structured hint fields.
func (uc *LegSearchUseCase) attachDateHint(
	ctx context.Context,
	resp *dto.LegSearchResponse,
	matchedIDs []string,
	req dto.AreaSearchRequest,
) {
	span, err := uc.legRepo.GetDateSpan(ctx, matchedIDs)
	if err != nil {
		// The hint is best effort; the empty result stands on its own.
		uc.logger.Warn("Failed to query date span for hint", zap.Error(err))
		return
	}
	if span.Count == 0 {
		return
	}

	hint := &dto.DateAvailabilityHint{
		SpatialMatchCount: span.Count,
		SearchedStartDate: req.StartDate,
		SearchedEndDate:   req.EndDate,
	}
	if span.Earliest != nil {
		hint.EarliestDate = span.Earliest.Format("2006-01-02")
	}
	if span.Latest != nil {
		hint.LatestDate = span.Latest.Format("2006-01-02")
	}

	resp.DateHint = hint
	resp.Message = dateHintMessage(
		span.Count,
		searchLocationName(req.DepartureDescription, req.ArrivalDescription),
		formatDateRange(span.Earliest, span.Latest),
		formatSearchedRange(req.StartDate, req.EndDate),
	)
}

func dateHintMessage(count int, location, scheduled, searched string) string {
	legWord, beVerb := "legs", "they're"
	if count == 1 {
		legWord, beVerb = "leg", "it's"
	}
	return fmt.Sprintf(
		"I found **%d** sailing %s in **%s**, but %s scheduled for **%s**, "+
			"which is outside your search dates (**%s**). "+
			"Would you like me to search with different dates?",
		count, legWord, location, beVerb, scheduled, searched,
	)
}

// searchLocationName prefers the departure description, then the arrival
// description, then a generic fallback.
func searchLocationName(departure, arrival string) string {
	if departure != "" {
		return departure
	}
	if arrival != "" {
		return arrival
	}
	return "this area"
}

func formatDateRange(earliest, latest *time.Time) string {
	switch {
	case earliest != nil && latest != nil:
		return earliest.Format(hintDateLayout) + " to " + latest.Format(hintDateLayout)
	case earliest != nil:
		return "from " + earliest.Format(hintDateLayout)
	case latest != nil:
		return "until " + latest.Format(hintDateLayout)
	default:
		return "unscheduled dates"
	}
}

func formatSearchedRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return formatSearchedDate(start) + " to " + formatSearchedDate(end)
	case start != "":
		return "from " + formatSearchedDate(start)
	default:
		return "until " + formatSearchedDate(end)
	}
}

// formatSearchedDate renders a caller-supplied ISO date for the message. On
// any parse failure the raw string is used verbatim.
func formatSearchedDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format(hintDateLayout)
}
