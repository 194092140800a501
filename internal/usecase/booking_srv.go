package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/dto/response"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, caller Identity, req *request.CreateReadingRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo         *repository.Repository
	ledger       LedgerService
	availability AvailabilityService
	notifier     notify.Notifier
	enforceQuote bool
	now          func() time.Time
	log          *zap.Logger
}

func NewBookingService(repo *repository.Repository, ledger LedgerService, availability AvailabilityService, notifier notify.Notifier, enforceQuote bool, log *zap.Logger) BookingService {
	return &bookingService{
		repo:         repo,
		ledger:       ledger,
		availability: availability,
		notifier:     notifier,
		enforceQuote: enforceQuote,
		now:          time.Now,
		log:          log.With(zap.String("service", "booking")),
	}
}

// bookingInput is a validated booking request.
type bookingInput struct {
	reader        *entity.Reader
	option        entity.ReadingOption
	explicit      *entity.ReadingStatus
	scheduledDate *time.Time
	timeZone      string
}

func (s *bookingService) CreateBooking(ctx context.Context, caller Identity, req *request.CreateReadingRequest) (*response.BookingResponse, error) {
	ctx, span := tracer.Start(ctx, "booking.CreateBooking")
	defer span.End()

	span.SetAttributes(
		attribute.String("client.id", caller.UserID.String()),
		attribute.String("reader.id", req.ReaderID),
	)

	resp, err := s.createBooking(ctx, caller, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reading.id", resp.Reading.ID),
		attribute.String("reading.status", resp.Reading.Status.String()),
	)
	return resp, nil
}

func (s *bookingService) createBooking(ctx context.Context, caller Identity, req *request.CreateReadingRequest) (*response.BookingResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	in, err := s.validateRequest(ctx, caller, req)
	if err != nil {
		if apperror.IsKind(err, apperror.KindValidation) {
			s.log.Warn("Create booking validation failed", zap.Error(err))
		}
		return nil, err
	}

	price := in.option.FinalPrice

	// No mutation before this point.
	if err := s.ledger.ValidateCredits(ctx, caller.UserID, price); err != nil {
		return nil, err
	}

	if in.scheduledDate != nil {
		free, err := s.availability.CheckReaderAvailability(ctx, in.reader.UserID, *in.scheduledDate, in.option.DurationMinutes())
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, apperror.New(apperror.KindSlotUnavailable, "Reader is not available at the requested time")
		}
	}

	readingID := uuid.New()
	balance, err := s.ledger.DeductCredits(ctx, caller.UserID, price, LedgerRef{
		Type:      entity.CreditTxDebit,
		ReadingID: &readingID,
		Reason:    "reading booking",
	})
	if err != nil {
		return nil, err
	}

	// Credits are gone from here on: every failure must compensate.
	now := s.now()
	reading := &entity.Reading{
		Base: entity.Base{
			ID:        readingID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClientID:      caller.UserID,
		ReaderID:      in.reader.UserID,
		Topic:         req.Topic,
		Question:      req.Question,
		ReadingOption: in.option,
		ScheduledDate: in.scheduledDate,
		Status:        InitialStatus(in.explicit, in.scheduledDate != nil, in.option.Type),
		Credits:       price,
	}

	if err := s.persist(ctx, reading, in.timeZone); err != nil {
		s.compensate(ctx, reading, false, err)
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperror.Wrap(apperror.KindSlotUnavailable, "Reader is not available at the requested time", err)
		}
		return nil, apperror.Internal("Failed to create reading", err)
	}

	err = s.notifier.Notify(ctx, notify.Notification{
		UserID:  reading.ReaderID,
		Type:    notify.TypeReadingRequested,
		Message: "You have a new reading request: " + reading.Topic,
		Data: map[string]any{
			"readingId": reading.ID.String(),
			"clientId":  reading.ClientID.String(),
			"status":    reading.Status,
		},
		CreatedAt: now,
	})
	if err != nil {
		s.compensate(ctx, reading, true, err)
		return nil, apperror.Internal("Failed to notify reader", err)
	}

	s.log.Info("Reading booked",
		zap.String("reading_id", reading.ID.String()),
		zap.String("client_id", reading.ClientID.String()),
		zap.String("reader_id", reading.ReaderID.String()),
		zap.String("status", string(reading.Status)),
		zap.Int("credits", price),
		zap.Int("balance", balance),
	)

	return &response.BookingResponse{
		Reading:       s.toResponse(reading, in.timeZone),
		CreditBalance: balance,
	}, nil
}

func (s *bookingService) validateRequest(ctx context.Context, caller Identity, req *request.CreateReadingRequest) (*bookingInput, error) {
	details := make(map[string]string)
	if err := validate(req); err != nil {
		appErr, _ := apperror.As(err)
		for field, msg := range appErr.Details {
			details[field] = msg
		}
	}

	option := entity.ReadingOption{
		Type:      entity.ReadingType(req.ReadingOption.Type),
		BasePrice: req.ReadingOption.BasePrice,
		TimeSpan: entity.TimeSpan{
			Duration:   req.ReadingOption.TimeSpan.Duration,
			Label:      req.ReadingOption.TimeSpan.Label,
			Multiplier: req.ReadingOption.TimeSpan.Multiplier,
		},
		FinalPrice: req.ReadingOption.FinalPrice,
	}

	if option.TimeSpan.Multiplier.IsNegative() {
		details["multiplier"] = "Must not be negative"
	} else if s.enforceQuote && option.BasePrice > 0 && option.FinalPrice > 0 && option.FinalPrice != option.QuotedPrice() {
		details["finalPrice"] = fmt.Sprintf("Must equal basePrice x multiplier (%d)", option.QuotedPrice())
	}

	if req.ScheduledDate != nil && req.ScheduledDate.Before(s.now()) {
		details["scheduledDate"] = "Must not be in the past"
	}

	var explicit *entity.ReadingStatus
	if req.Status != nil {
		status, err := entity.ParseReadingStatus(*req.Status)
		switch {
		case err != nil:
			details["status"] = "Unknown reading status"
		case !status.IsInitial():
			details["status"] = "Must be one of: suggested, instant_queue, scheduled, message_queue"
		case status == entity.ReadingStatusScheduled && req.ScheduledDate == nil:
			details["scheduledDate"] = "Required when status is scheduled"
		default:
			explicit = &status
		}
	}

	readerID, err := uuid.Parse(req.ReaderID)
	if err == nil && readerID == caller.UserID {
		details["readerId"] = "You cannot book a reading with yourself"
	}

	if len(details) > 0 {
		return nil, apperror.Validation("Validation failed", details)
	}

	reader, err := s.repo.Reader.FindByUserID(ctx, readerID)
	if err != nil {
		return nil, apperror.Internal("Failed to load reader", err)
	}
	if reader == nil {
		return nil, apperror.NotFound("Reader not found")
	}

	timeZone := reader.Availability.Timezone
	if req.TimeZone != nil && *req.TimeZone != "" {
		timeZone = *req.TimeZone
	}
	if timeZone == "" {
		timeZone = "UTC"
	}

	var scheduledDate *time.Time
	if req.ScheduledDate != nil {
		d := req.ScheduledDate.UTC()
		scheduledDate = &d
	}

	return &bookingInput{
		reader:        reader,
		option:        option,
		explicit:      explicit,
		scheduledDate: scheduledDate,
		timeZone:      timeZone,
	}, nil
}

// persist writes the reading; scheduled readings go in together with their
// calendar row under the reader lock.
func (s *bookingService) persist(ctx context.Context, reading *entity.Reading, timeZone string) error {
	if reading.Status != entity.ReadingStatusScheduled {
		return s.repo.Reading.Create(ctx, reading)
	}

	return s.repo.Reading.CreateScheduled(ctx, reading, &entity.ScheduledReading{
		ReadingID:     reading.ID,
		ScheduledDate: *reading.ScheduledDate,
		TimeZone:      timeZone,
		CreatedAt:     reading.CreatedAt,
	})
}

// compensate refunds the debit and, when the reading was stored, marks it
// refunded. Both steps are best-effort; cause is what the caller will see.
func (s *bookingService) compensate(ctx context.Context, reading *entity.Reading, persisted bool, cause error) {
	log := s.log.With(
		zap.String("reading_id", reading.ID.String()),
		zap.String("client_id", reading.ClientID.String()),
		zap.Int("credits", reading.Credits),
		zap.NamedError("cause", cause),
	)
	log.Warn("Booking failed after debit, compensating")

	// The request context may already be cancelled.
	ctx = context.WithoutCancel(ctx)

	readingID := reading.ID
	if _, err := s.ledger.CreditCredits(ctx, reading.ClientID, reading.Credits, LedgerRef{
		Type:      entity.CreditTxRefund,
		ReadingID: &readingID,
		Reason:    "booking compensation",
	}); err != nil {
		log.Error("Compensating refund failed", zap.Error(err))
	}

	if !persisted {
		return
	}
	if _, _, err := s.repo.Reading.MarkRefunded(ctx, reading.ID); err != nil {
		log.Error("Failed to mark compensated reading refunded", zap.Error(err))
	}
}

func (s *bookingService) toResponse(reading *entity.Reading, timeZone string) response.ReadingResponse {
	resp := response.ReadingToResponse(reading)
	if reading.ScheduledDate != nil {
		resp.TimeZone = timeZone
	}
	return resp
}
