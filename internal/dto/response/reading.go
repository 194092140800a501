package response

import (
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
)

type ReadingResponse struct {
	ID            string               `json:"id"`
	ClientID      string               `json:"clientId"`
	ReaderID      string               `json:"readerId"`
	Topic         string               `json:"topic"`
	Question      *string              `json:"question,omitempty"`
	ReadingOption entity.ReadingOption `json:"readingOption"`
	ScheduledDate *time.Time           `json:"scheduledDate,omitempty"`
	TimeZone      string               `json:"timeZone,omitempty"`
	Status        entity.ReadingStatus `json:"status"`
	Credits       int                  `json:"credits"`
	Review        *entity.Review       `json:"review,omitempty"`
	Dispute       *entity.Dispute      `json:"dispute,omitempty"`
	CompletedDate *time.Time           `json:"completedDate,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// BookingResponse is returned by the booking endpoint.
type BookingResponse struct {
	Reading       ReadingResponse `json:"reading"`
	CreditBalance int             `json:"creditBalance"`
}

type StatusChangeResponse struct {
	Reading        ReadingResponse      `json:"reading"`
	PreviousStatus entity.ReadingStatus `json:"previousStatus"`
}

type RefundResponse struct {
	Reading       ReadingResponse `json:"reading"`
	Refunded      int             `json:"refunded"`
	CreditBalance int             `json:"creditBalance"`
}

type AvailableSlotsResponse struct {
	ReaderID string      `json:"readerId"`
	Date     string      `json:"date"`
	Duration int         `json:"duration"`
	TimeZone string      `json:"timeZone"`
	Slots    []time.Time `json:"slots"`
}

// Helper converters
func ReadingToResponse(reading *entity.Reading) ReadingResponse {
	return ReadingResponse{
		ID:            reading.ID.String(),
		ClientID:      reading.ClientID.String(),
		ReaderID:      reading.ReaderID.String(),
		Topic:         reading.Topic,
		Question:      reading.Question,
		ReadingOption: reading.ReadingOption,
		ScheduledDate: reading.ScheduledDate,
		Status:        reading.Status,
		Credits:       reading.Credits,
		Review:        reading.Review,
		Dispute:       reading.Dispute,
		CompletedDate: reading.CompletedDate,
		CreatedAt:     reading.CreatedAt,
		UpdatedAt:     reading.UpdatedAt,
	}
}
