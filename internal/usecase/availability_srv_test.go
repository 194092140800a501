package usecase_test

import (
	"context"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinWorkingHours(t *testing.T) {
	utc := entity.AvailabilityTemplate{
		Schedule: map[string][]entity.TimeWindow{
			"monday": {{Start: "09:00", End: "12:00"}, {Start: "18:00", End: "21:00"}},
		},
		Timezone: "UTC",
	}
	newYork := entity.AvailabilityTemplate{
		Schedule: map[string][]entity.TimeWindow{
			"monday": {{Start: "09:00", End: "17:00"}},
		},
		Timezone: "America/New_York",
	}

	// 2025-01-06 is a Monday; New York is UTC-5 in January.
	monday := func(hour, minute int) time.Time {
		return time.Date(2025, 1, 6, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		date     time.Time
		template entity.AvailabilityTemplate
		want     bool
	}{
		{name: "window start inclusive", date: monday(9, 0), template: utc, want: true},
		{name: "inside first window", date: monday(11, 59), template: utc, want: true},
		{name: "window end exclusive", date: monday(12, 0), template: utc, want: false},
		{name: "before first window", date: monday(8, 59), template: utc, want: false},
		{name: "between windows", date: monday(15, 0), template: utc, want: false},
		{name: "second window", date: monday(19, 30), template: utc, want: true},
		{name: "day without windows", date: monday(10, 0).AddDate(0, 0, 1), template: utc, want: false},
		{name: "local morning in reader timezone", date: monday(14, 0), template: newYork, want: true},
		{name: "utc morning is night in reader timezone", date: monday(13, 59), template: newYork, want: false},
		{name: "unknown timezone", date: monday(10, 0), template: entity.AvailabilityTemplate{
			Schedule: utc.Schedule,
			Timezone: "Mars/Olympus",
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.IsWithinWorkingHours(tt.date, tt.template))
		})
	}
}

func TestAvailability_CheckReaderAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booked := nextMonday(10, 0)
	f.seedReading(entity.ReadingStatusScheduled, &booked)

	// Finished readings no longer occupy the calendar.
	old := nextMonday(11, 0)
	f.seedReading(entity.ReadingStatusArchived, &old)

	tests := []struct {
		name     string
		start    time.Time
		duration time.Duration
		want     bool
	}{
		{name: "overlaps booked reading", start: nextMonday(10, 15), duration: 30 * time.Minute, want: false},
		{name: "same start", start: booked, duration: 15 * time.Minute, want: false},
		{name: "starts when booked reading ends", start: nextMonday(10, 30), duration: 30 * time.Minute, want: true},
		{name: "ends when booked reading starts", start: nextMonday(9, 30), duration: 30 * time.Minute, want: true},
		{name: "runs into booked reading", start: nextMonday(9, 45), duration: 30 * time.Minute, want: false},
		{name: "over archived reading", start: old, duration: 30 * time.Minute, want: true},
		{name: "outside working hours", start: nextMonday(13, 0), duration: 30 * time.Minute, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free, err := f.svc.Availability.CheckReaderAvailability(ctx, f.reader, tt.start, tt.duration)
			require.NoError(t, err)
			assert.Equal(t, tt.want, free)
		})
	}

	_, err := f.svc.Availability.CheckReaderAvailability(ctx, uuid.New(), booked, time.Minute)
	requireKind(t, err, apperror.KindNotFound)
}

func TestAvailability_GetAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booked := nextMonday(10, 0)
	f.seedReading(entity.ReadingStatusInProgress, &booked)

	seq, err := f.svc.Availability.GetAvailableSlots(ctx, f.reader, booked, 30*time.Minute)
	require.NoError(t, err)

	want := []time.Time{
		nextMonday(9, 0), nextMonday(9, 30),
		nextMonday(10, 30), nextMonday(11, 0), nextMonday(11, 30),
		nextMonday(18, 0), nextMonday(18, 30), nextMonday(19, 0),
		nextMonday(19, 30), nextMonday(20, 0), nextMonday(20, 30),
	}

	first := slices.Collect(seq)
	assert.Equal(t, want, first)

	// The sequence is restartable.
	assert.Equal(t, first, slices.Collect(seq))

	// Early termination is honoured.
	var taken []time.Time
	for slot := range seq {
		taken = append(taken, slot)
		if len(taken) == 2 {
			break
		}
	}
	assert.Equal(t, want[:2], taken)
}

func TestAvailability_GetAvailableSlots_LongDuration(t *testing.T) {
	f := newFixture(t)

	booked := nextMonday(10, 0)
	f.seedReading(entity.ReadingStatusScheduled, &booked)

	seq, err := f.svc.Availability.GetAvailableSlots(context.Background(), f.reader, booked, 60*time.Minute)
	require.NoError(t, err)

	slots := slices.Collect(seq)
	assert.NotContains(t, slots, nextMonday(9, 30), "a 60 minute slot at 09:30 runs into the 10:00 reading")
	assert.Contains(t, slots, nextMonday(9, 0))
	assert.Contains(t, slots, nextMonday(10, 30))
}

func TestAvailability_ListAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	day := nextMonday(0, 0)
	got, err := f.svc.Availability.ListAvailableSlots(ctx, f.reader.String(), &request.AvailableSlotsRequest{
		Date:     day.Format("2006-01-02"),
		Duration: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.TimeZone)
	assert.Equal(t, 60, got.Duration)
	require.NotEmpty(t, got.Slots)
	assert.Equal(t, nextMonday(9, 0), got.Slots[0])

	_, err = f.svc.Availability.ListAvailableSlots(ctx, f.reader.String(), &request.AvailableSlotsRequest{
		Date:     "06/01/2025",
		Duration: 60,
	})
	requireKind(t, err, apperror.KindValidation)

	_, err = f.svc.Availability.ListAvailableSlots(ctx, "not-a-uuid", &request.AvailableSlotsRequest{
		Date:     day.Format("2006-01-02"),
		Duration: 60,
	})
	requireKind(t, err, apperror.KindValidation)
}
