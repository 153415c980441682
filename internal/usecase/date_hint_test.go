package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	assert.NoError(t, err)
	return &d
}

func TestFormatDateRange(t *testing.T) {
	aug1 := mustDate(t, "2024-08-01")
	aug10 := mustDate(t, "2024-08-10")

	tests := []struct {
		name     string
		earliest *time.Time
		latest   *time.Time
		expected string
	}{
		{"both bounds", aug1, aug10, "Aug 1, 2024 to Aug 10, 2024"},
		{"only earliest", aug1, nil, "from Aug 1, 2024"},
		{"only latest", nil, aug10, "until Aug 10, 2024"},
		{"neither", nil, nil, "unscheduled dates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDateRange(tt.earliest, tt.latest))
		})
	}
}

func TestFormatSearchedDate_VerbatimOnParseFailure(t *testing.T) {
	assert.Equal(t, "Jan 1, 2024", formatSearchedDate("2024-01-01"))
	assert.Equal(t, "next summer", formatSearchedDate("next summer"))
}

func TestDateHintMessage_Pluralization(t *testing.T) {
	single := dateHintMessage(1, "Barcelona", "Aug 1, 2024 to Aug 10, 2024", "from Jan 1, 2024")
	assert.Contains(t, single, "**1** sailing leg in")
	assert.Contains(t, single, "it's scheduled")

	plural := dateHintMessage(3, "Barcelona", "Aug 1, 2024 to Sep 10, 2024", "from Jan 1, 2024")
	assert.Contains(t, plural, "**3** sailing legs in")
	assert.Contains(t, plural, "they're scheduled")
}

func TestSearchLocationName(t *testing.T) {
	assert.Equal(t, "Lisbon", searchLocationName("Lisbon", "Madeira"))
	assert.Equal(t, "Madeira", searchLocationName("", "Madeira"))
	assert.Equal(t, "this area", searchLocationName("", ""))
}
