package entity_test

import (
	"testing"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingStatus(t *testing.T) {
	for _, status := range entity.ReadingStatuses() {
		parsed, err := entity.ParseReadingStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := entity.ParseReadingStatus("cancelled")
	assert.ErrorIs(t, err, entity.ErrUnknownReadingStatus)
}

func TestReadingStatus_IsInitial(t *testing.T) {
	initial := map[entity.ReadingStatus]bool{
		entity.ReadingStatusSuggested:    true,
		entity.ReadingStatusInstantQueue: true,
		entity.ReadingStatusScheduled:    true,
		entity.ReadingStatusMessageQueue: true,
	}
	for _, status := range entity.ReadingStatuses() {
		assert.Equal(t, initial[status], status.IsInitial(), string(status))
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }

	assert.True(t, entity.Overlaps(at(10, 0), at(10, 30), at(10, 15), at(10, 45)))
	assert.False(t, entity.Overlaps(at(10, 0), at(10, 30), at(10, 30), at(11, 0)))
	assert.False(t, entity.Overlaps(at(10, 30), at(11, 0), at(10, 0), at(10, 30)))
	assert.True(t, entity.Overlaps(at(9, 0), at(12, 0), at(10, 0), at(10, 30)))
}

func TestReading_ConflictsWith_IgnoresInactiveStatuses(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	reading := &entity.Reading{
		ScheduledDate: &start,
		ReadingOption: entity.ReadingOption{TimeSpan: entity.TimeSpan{Duration: 30}},
		Status:        entity.ReadingStatusScheduled,
	}
	assert.True(t, reading.ConflictsWith(start.Add(15*time.Minute), start.Add(45*time.Minute)))

	reading.Status = entity.ReadingStatusArchived
	assert.False(t, reading.ConflictsWith(start.Add(15*time.Minute), start.Add(45*time.Minute)))
}

func TestReadingOption_QuotedPrice(t *testing.T) {
	option := entity.ReadingOption{
		BasePrice: 20,
		TimeSpan:  entity.TimeSpan{Duration: 45, Multiplier: decimal.RequireFromString("1.5")},
	}
	assert.Equal(t, 30, option.QuotedPrice())

	option.TimeSpan.Multiplier = decimal.Zero
	assert.Equal(t, 20, option.QuotedPrice(), "zero multiplier counts as 1")

	option = entity.ReadingOption{BasePrice: 5, TimeSpan: entity.TimeSpan{Multiplier: decimal.RequireFromString("1.5")}}
	assert.Equal(t, 8, option.QuotedPrice(), "7.5 rounds up")
}

func TestTimeWindow_Minutes(t *testing.T) {
	start, end, err := entity.TimeWindow{Start: "09:00", End: "17:30"}.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 540, start)
	assert.Equal(t, 1050, end)

	_, end, err = entity.TimeWindow{Start: "18:00", End: "24:00"}.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 1440, end)

	_, _, err = entity.TimeWindow{Start: "12:00", End: "11:00"}.Minutes()
	assert.Error(t, err)

	_, _, err = entity.TimeWindow{Start: "noon", End: "13:00"}.Minutes()
	assert.Error(t, err)
}

func TestAvailabilityTemplate_WindowsFor(t *testing.T) {
	template := entity.AvailabilityTemplate{
		Schedule: map[string][]entity.TimeWindow{
			"monday": {{Start: "09:00", End: "12:00"}, {Start: "18:00", End: "21:00"}},
		},
	}
	assert.Len(t, template.WindowsFor(time.Monday), 2)
	assert.Empty(t, template.WindowsFor(time.Tuesday))

	loc, err := template.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
