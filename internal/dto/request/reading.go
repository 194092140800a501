package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeSpanRequest struct {
	Duration   int             `json:"duration" validate:"gt=0,max=480"`
	Label      string          `json:"label" validate:"max=50"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type ReadingOptionRequest struct {
	Type       string          `json:"type" validate:"required,reading_type"`
	BasePrice  int             `json:"basePrice" validate:"gte=0"`
	TimeSpan   TimeSpanRequest `json:"timeSpan"`
	FinalPrice int             `json:"finalPrice" validate:"gt=0"`
}

type CreateReadingRequest struct {
	ReaderID      string               `json:"readerId" validate:"required,uuid"`
	Topic         string               `json:"topic" validate:"required,min=1,max=200"`
	Question      *string              `json:"question,omitempty" validate:"omitempty,max=2000"`
	ReadingOption ReadingOptionRequest `json:"readingOption"`
	ScheduledDate *time.Time           `json:"scheduledDate,omitempty"`
	TimeZone      *string              `json:"timeZone,omitempty" validate:"omitempty,timezone"`
	Status        *string              `json:"status,omitempty" validate:"omitempty,reading_status"`
}

type SubmitReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

type FileDisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" validate:"required,min=1,max=2000"`
}

type ForceStatusRequest struct {
	Status string `json:"status" validate:"required,reading_status"`
}

// AvailableSlotsRequest is bound from the query string.
type AvailableSlotsRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Duration int    `json:"duration" validate:"gt=0,max=480"`
}
