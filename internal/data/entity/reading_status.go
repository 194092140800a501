package entity

import (
	"errors"
	"fmt"
)

type ReadingStatus string

const (
	ReadingStatusSuggested    ReadingStatus = "suggested"
	ReadingStatusInstantQueue ReadingStatus = "instant_queue"
	ReadingStatusScheduled    ReadingStatus = "scheduled"
	ReadingStatusMessageQueue ReadingStatus = "message_queue"
	ReadingStatusInProgress   ReadingStatus = "in_progress"
	ReadingStatusCompleted    ReadingStatus = "completed"
	ReadingStatusArchived     ReadingStatus = "archived"
	ReadingStatusDisputed     ReadingStatus = "disputed"
	ReadingStatusRefunded     ReadingStatus = "refunded"
)

var ErrUnknownReadingStatus = errors.New("unknown reading status")

// ReadingStatuses lists every lifecycle state in declaration order.
func ReadingStatuses() []ReadingStatus {
	return []ReadingStatus{
		ReadingStatusSuggested,
		ReadingStatusInstantQueue,
		ReadingStatusScheduled,
		ReadingStatusMessageQueue,
		ReadingStatusInProgress,
		ReadingStatusCompleted,
		ReadingStatusArchived,
		ReadingStatusDisputed,
		ReadingStatusRefunded,
	}
}

func ParseReadingStatus(s string) (ReadingStatus, error) {
	status := ReadingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownReadingStatus, s)
	}
	return status, nil
}

func (s ReadingStatus) Valid() bool {
	switch s {
	case ReadingStatusSuggested, ReadingStatusInstantQueue, ReadingStatusScheduled,
		ReadingStatusMessageQueue, ReadingStatusInProgress, ReadingStatusCompleted,
		ReadingStatusArchived, ReadingStatusDisputed, ReadingStatusRefunded:
		return true
	}
	return false
}

// IsInitial reports whether a reading may be created in this state.
func (s ReadingStatus) IsInitial() bool {
	switch s {
	case ReadingStatusSuggested, ReadingStatusInstantQueue,
		ReadingStatusScheduled, ReadingStatusMessageQueue:
		return true
	case ReadingStatusInProgress, ReadingStatusCompleted, ReadingStatusArchived,
		ReadingStatusDisputed, ReadingStatusRefunded:
		return false
	}
	return false
}

// OccupiesCalendar reports whether a reading in this state blocks the
// reader's time slot.
func (s ReadingStatus) OccupiesCalendar() bool {
	switch s {
	case ReadingStatusScheduled, ReadingStatusInProgress:
		return true
	case ReadingStatusSuggested, ReadingStatusInstantQueue, ReadingStatusMessageQueue,
		ReadingStatusCompleted, ReadingStatusArchived, ReadingStatusDisputed,
		ReadingStatusRefunded:
		return false
	}
	return false
}

// CanStart reports whether the reader may begin a session from this state.
func (s ReadingStatus) CanStart() bool {
	return s.IsInitial()
}

func (s ReadingStatus) String() string {
	return string(s)
}
