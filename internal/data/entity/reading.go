package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReadingType string

const (
	ReadingTypePhoneCall    ReadingType = "phone_call"
	ReadingTypeVideoMessage ReadingType = "video_message"
	ReadingTypeLiveVideo    ReadingType = "live_video"
)

func (t ReadingType) Valid() bool {
	switch t {
	case ReadingTypePhoneCall, ReadingTypeVideoMessage, ReadingTypeLiveVideo:
		return true
	}
	return false
}

type TimeSpan struct {
	Duration   int             `json:"duration"` // minutes
	Label      string          `json:"label"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type ReadingOption struct {
	Type       ReadingType `json:"type"`
	BasePrice  int         `json:"basePrice"`
	TimeSpan   TimeSpan    `json:"timeSpan"`
	FinalPrice int         `json:"finalPrice"`
}

// QuotedPrice is basePrice x multiplier rounded half away from zero.
// A zero multiplier counts as 1.
func (o ReadingOption) QuotedPrice() int {
	multiplier := o.TimeSpan.Multiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	return int(decimal.NewFromInt(int64(o.BasePrice)).Mul(multiplier).Round(0).IntPart())
}

func (o ReadingOption) DurationMinutes() time.Duration {
	return time.Duration(o.TimeSpan.Duration) * time.Minute
}

type Review struct {
	Rating int    `json:"rating"` // 1-5
	Review string `json:"review"`
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

type Dispute struct {
	Reason        string        `json:"reason"`
	Status        DisputeStatus `json:"status"`
	ClientID      uuid.UUID     `json:"clientId"`
	AdminResponse *string       `json:"adminResponse,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty"`
}

type Reading struct {
	Base
	ClientID      uuid.UUID     `db:"client_id"`
	ReaderID      uuid.UUID     `db:"reader_id"`
	Topic         string        `db:"topic"`
	Question      *string       `db:"question"`
	ReadingOption ReadingOption `db:"reading_option"` // jsonb
	ScheduledDate *time.Time    `db:"scheduled_date"`
	Status        ReadingStatus `db:"status"`
	Credits       int           `db:"credits"`
	Review        *Review       `db:"review"`  // jsonb
	Dispute       *Dispute      `db:"dispute"` // jsonb
	CompletedDate *time.Time    `db:"completed_date"`
}

// Interval returns the half-open [start, end) the reading occupies on the
// reader's calendar. ok is false for unscheduled readings.
func (r *Reading) Interval() (start, end time.Time, ok bool) {
	if r.ScheduledDate == nil {
		return time.Time{}, time.Time{}, false
	}
	start = *r.ScheduledDate
	return start, start.Add(r.ReadingOption.DurationMinutes()), true
}

// ConflictsWith reports whether the reading blocks [start, end).
func (r *Reading) ConflictsWith(start, end time.Time) bool {
	if !r.Status.OccupiesCalendar() {
		return false
	}
	existingStart, existingEnd, ok := r.Interval()
	if !ok {
		return false
	}
	return Overlaps(existingStart, existingEnd, start, end)
}

// IsParty reports whether userID is the client or the reader of the reading.
func (r *Reading) IsParty(userID uuid.UUID) bool {
	return r.ClientID == userID || r.ReaderID == userID
}

// Overlaps is half-open interval intersection; abutting intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type ScheduledReading struct {
	ReadingID     uuid.UUID `db:"reading_id"`
	ScheduledDate time.Time `db:"scheduled_date"`
	TimeZone      string    `db:"time_zone"`
	CreatedAt     time.Time `db:"created_at"`
}
