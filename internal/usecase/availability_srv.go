package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/dto/response"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultSlotStep = 30 * time.Minute

type AvailabilityService interface {
	CheckReaderAvailability(ctx context.Context, readerID uuid.UUID, start time.Time, duration time.Duration) (bool, error)
	// GetAvailableSlots yields free start times on the reader-local calendar
	// day of date, in chronological order. The sequence may be ranged over
	// more than once.
	GetAvailableSlots(ctx context.Context, readerID uuid.UUID, date time.Time, duration time.Duration) (iter.Seq[time.Time], error)
	ListAvailableSlots(ctx context.Context, readerID string, req *request.AvailableSlotsRequest) (*response.AvailableSlotsResponse, error)
}

type availabilityService struct {
	repo *repository.Repository
	step time.Duration
	now  func() time.Time
	log  *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, step time.Duration, log *zap.Logger) AvailabilityService {
	if step <= 0 {
		step = DefaultSlotStep
	}
	return &availabilityService{
		repo: repo,
		step: step,
		now:  time.Now,
		log:  log.With(zap.String("service", "availability")),
	}
}

// IsWithinWorkingHours reports whether date, seen in the template's timezone,
// falls inside one of that weekday's windows (start inclusive, end exclusive).
func IsWithinWorkingHours(date time.Time, template entity.AvailabilityTemplate) bool {
	loc, err := template.Location()
	if err != nil {
		return false
	}

	local := date.In(loc)
	minute := local.Hour()*60 + local.Minute()

	for _, window := range template.WindowsFor(local.Weekday()) {
		start, end, err := window.Minutes()
		if err != nil {
			continue
		}
		if start <= minute && minute < end {
			return true
		}
	}
	return false
}

func (s *availabilityService) CheckReaderAvailability(ctx context.Context, readerID uuid.UUID, start time.Time, duration time.Duration) (bool, error) {
	reader, err := s.loadReader(ctx, readerID)
	if err != nil {
		return false, err
	}

	if !IsWithinWorkingHours(start, reader.Availability) {
		s.log.Debug("Requested time outside working hours",
			zap.String("reader_id", readerID.String()),
			zap.Time("start", start),
		)
		return false, nil
	}

	conflicts, err := s.repo.Reading.FindConflicting(ctx, readerID, start, start.Add(duration))
	if err != nil {
		s.log.Error("Failed to load reader calendar",
			zap.Error(err),
			zap.String("reader_id", readerID.String()),
		)
		return false, apperror.Internal("Failed to check reader availability", err)
	}

	return len(conflicts) == 0, nil
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, readerID uuid.UUID, date time.Time, duration time.Duration) (iter.Seq[time.Time], error) {
	reader, err := s.loadReader(ctx, readerID)
	if err != nil {
		return nil, err
	}
	return s.slots(ctx, reader, date, duration)
}

func (s *availabilityService) ListAvailableSlots(ctx context.Context, readerID string, req *request.AvailableSlotsRequest) (*response.AvailableSlotsResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	readerUUID, err := parseID("readerId", readerID)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperror.Validation("Validation failed", map[string]string{"date": "Must match format 2006-01-02"})
	}

	reader, err := s.loadReader(ctx, readerUUID)
	if err != nil {
		return nil, err
	}

	seq, err := s.slots(ctx, reader, date, time.Duration(req.Duration)*time.Minute)
	if err != nil {
		return nil, err
	}

	now := s.now()
	slots := make([]time.Time, 0)
	for slot := range seq {
		if slot.Before(now) {
			continue
		}
		slots = append(slots, slot)
	}

	loc, _ := reader.Availability.Location()
	return &response.AvailableSlotsResponse{
		ReaderID: readerUUID.String(),
		Date:     req.Date,
		Duration: req.Duration,
		TimeZone: loc.String(),
		Slots:    slots,
	}, nil
}

func (s *availabilityService) slots(ctx context.Context, reader *entity.Reader, date time.Time, duration time.Duration) (iter.Seq[time.Time], error) {
	loc, err := reader.Availability.Location()
	if err != nil {
		s.log.Warn("Reader has an invalid timezone",
			zap.String("reader_id", reader.UserID.String()),
			zap.String("timezone", reader.Availability.Timezone),
		)
		return nil, apperror.Internal("Reader availability is misconfigured", err)
	}

	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Slots near midnight may run into the next day.
	booked, err := s.repo.Reading.FindConflicting(ctx, reader.UserID, dayStart, dayEnd.Add(duration))
	if err != nil {
		return nil, apperror.Internal("Failed to load reader calendar", err)
	}

	template := reader.Availability
	step := s.step

	return func(yield func(time.Time) bool) {
		for start := dayStart; start.Before(dayEnd); start = start.Add(step) {
			if !IsWithinWorkingHours(start, template) {
				continue
			}
			if conflictsAny(booked, start, start.Add(duration)) {
				continue
			}
			if !yield(start) {
				return
			}
		}
	}, nil
}

func (s *availabilityService) loadReader(ctx context.Context, readerID uuid.UUID) (*entity.Reader, error) {
	reader, err := s.repo.Reader.FindByUserID(ctx, readerID)
	if err != nil {
		return nil, apperror.Internal("Failed to load reader", err)
	}
	if reader == nil {
		return nil, apperror.NotFound("Reader not found")
	}
	return reader, nil
}

func conflictsAny(readings []*entity.Reading, start, end time.Time) bool {
	for _, r := range readings {
		if r.ConflictsWith(start, end) {
			return true
		}
	}
	return false
}
