package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	PresenceAvailable PresenceStatus = "available"
	PresenceBusy      PresenceStatus = "busy"
	PresenceOffline   PresenceStatus = "offline"
)

// Reader is the reader profile projection: presence and weekly template.
type Reader struct {
	UserID       uuid.UUID            `db:"user_id"`
	DisplayName  string               `db:"display_name"`
	Status       PresenceStatus       `db:"status"`
	Availability AvailabilityTemplate `db:"availability"` // jsonb
	UpdatedAt    time.Time            `db:"updated_at"`
}

// TimeWindow is a working window in "HH:MM" local time, start inclusive,
// end exclusive. "24:00" is accepted as an end of day.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Minutes returns the window bounds in minutes since midnight.
func (w TimeWindow) Minutes() (start, end int, err error) {
	start, err = parseClock(w.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = parseClock(w.End)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("window %s-%s ends before it starts", w.Start, w.End)
	}
	return start, end, nil
}

type AvailabilityTemplate struct {
	// Schedule is keyed by lowercase weekday name ("monday" ... "sunday").
	Schedule       map[string][]TimeWindow `json:"schedule"`
	Timezone       string                  `json:"timezone"`
	InstantBooking bool                    `json:"instantBooking"`
}

// Location resolves the template timezone, defaulting to UTC.
func (t AvailabilityTemplate) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Timezone)
}

func (t AvailabilityTemplate) WindowsFor(day time.Weekday) []TimeWindow {
	if t.Schedule == nil {
		return nil
	}
	return t.Schedule[strings.ToLower(day.String())]
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}
