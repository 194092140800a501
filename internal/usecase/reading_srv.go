package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/dto/response"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReadingService interface {
	GetReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error)
	ListClientReadings(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReadingResponse], error)
	ListReaderReadings(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReadingResponse], error)

	// Reader driven transitions
	StartReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error)
	FinishReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error)

	// Client actions on archived readings
	SubmitReview(ctx context.Context, caller Identity, readingID string, req *request.SubmitReviewRequest) (*response.ReadingResponse, error)
	FileDispute(ctx context.Context, caller Identity, readingID string, req *request.FileDisputeRequest) (*response.ReadingResponse, error)

	// Admin
	ResolveDispute(ctx context.Context, caller Identity, readingID string, req *request.ResolveDisputeRequest) (*response.ReadingResponse, error)
}

type readingService struct {
	repo     *repository.Repository
	presence *presenceReconciler
	notifier notify.Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewReadingService(repo *repository.Repository, notifier notify.Notifier, log *zap.Logger) ReadingService {
	return &readingService{
		repo:     repo,
		presence: newPresenceReconciler(repo, log),
		notifier: notifier,
		now:      time.Now,
		log:      log.With(zap.String("service", "reading")),
	}
}

// InitialStatus picks the creation status: an explicit status wins, then a
// scheduled date, then video messages go to the message queue, otherwise the
// instant queue. The explicit status must already be known to be initial.
func InitialStatus(explicit *entity.ReadingStatus, scheduled bool, readingType entity.ReadingType) entity.ReadingStatus {
	switch {
	case explicit != nil:
		return *explicit
	case scheduled:
		return entity.ReadingStatusScheduled
	case readingType == entity.ReadingTypeVideoMessage:
		return entity.ReadingStatusMessageQueue
	default:
		return entity.ReadingStatusInstantQueue
	}
}

func (s *readingService) GetReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	if !reading.IsParty(caller.UserID) && !caller.IsAdmin() {
		return nil, apperror.Forbidden("You are not a party to this reading")
	}

	resp := response.ReadingToResponse(reading)
	if reading.Status == entity.ReadingStatusScheduled || reading.ScheduledDate != nil {
		slot, err := s.repo.ScheduledReading.FindByReadingID(ctx, reading.ID)
		if err != nil {
			s.log.Warn("Failed to load scheduled reading", zap.Error(err), zap.String("reading_id", readingID))
		} else if slot != nil {
			resp.TimeZone = slot.TimeZone
		}
	}

	return &resp, nil
}

func (s *readingService) ListClientReadings(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReadingResponse], error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	readings, err := s.repo.Reading.FindByClientID(ctx, caller.UserID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get client readings",
			zap.Error(err),
			zap.String("user_id", caller.UserID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, apperror.Internal("Failed to get readings", err)
	}

	total, err := s.repo.Reading.CountByClientID(ctx, caller.UserID)
	if err != nil {
		return nil, apperror.Internal("Failed to count readings", err)
	}

	return response.NewPaginatedResponse(toReadingResponses(readings), req.Page, limit, total), nil
}

func (s *readingService) ListReaderReadings(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReadingResponse], error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if caller.Role != entity.RoleReader {
		return nil, apperror.Forbidden("Reader access required")
	}

	limit := req.Limit()
	offset := req.Offset()

	readings, err := s.repo.Reading.FindByReaderID(ctx, caller.UserID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get reader readings",
			zap.Error(err),
			zap.String("reader_id", caller.UserID.String()),
		)
		return nil, apperror.Internal("Failed to get readings", err)
	}

	total, err := s.repo.Reading.CountByReaderID(ctx, caller.UserID)
	if err != nil {
		return nil, apperror.Internal("Failed to count readings", err)
	}

	return response.NewPaginatedResponse(toReadingResponses(readings), req.Page, limit, total), nil
}

func (s *readingService) StartReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error) {
	from := make([]entity.ReadingStatus, 0, 4)
	for _, status := range entity.ReadingStatuses() {
		if status.CanStart() {
			from = append(from, status)
		}
	}
	return s.transition(ctx, caller, readingID, from, entity.ReadingStatusInProgress)
}

func (s *readingService) FinishReading(ctx context.Context, caller Identity, readingID string) (*response.ReadingResponse, error) {
	return s.transition(ctx, caller, readingID,
		[]entity.ReadingStatus{entity.ReadingStatusInProgress}, entity.ReadingStatusArchived)
}

func (s *readingService) transition(ctx context.Context, caller Identity, readingID string, from []entity.ReadingStatus, to entity.ReadingStatus) (*response.ReadingResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	if reading.ReaderID != caller.UserID {
		return nil, apperror.Forbidden("Only the assigned reader can change this reading")
	}

	ok, err := s.repo.Reading.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return nil, apperror.Internal("Failed to update reading", err)
	}
	if !ok {
		s.log.Info("Rejected reading transition",
			zap.String("reading_id", readingID),
			zap.String("status", string(reading.Status)),
			zap.String("to", string(to)),
		)
		return nil, apperror.New(apperror.KindInvalidState,
			"Reading cannot move from "+reading.Status.String()+" to "+to.String())
	}

	s.log.Info("Reading status changed",
		zap.String("reading_id", readingID),
		zap.String("from", string(reading.Status)),
		zap.String("to", string(to)),
	)

	s.presence.Apply(ctx, reading, to)

	notifyUser(ctx, s.notifier, s.log, notify.Notification{
		UserID:  reading.ClientID,
		Type:    notify.TypeReadingStatus,
		Message: "Your reading is now " + to.String(),
		Data:    map[string]any{"readingId": reading.ID.String(), "status": to},
	})

	return s.reload(ctx, id)
}

func (s *readingService) SubmitReview(ctx context.Context, caller Identity, readingID string, req *request.SubmitReviewRequest) (*response.ReadingResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	if reading.ClientID != caller.UserID {
		return nil, apperror.Forbidden("Only the client who booked this reading can review it")
	}

	errInvalid := apperror.New(apperror.KindInvalidStateForReview, "Reading must be archived before it can be reviewed")
	if reading.Status != entity.ReadingStatusArchived {
		return nil, errInvalid
	}

	// Guarded on status so a concurrent dispute cannot be overwritten.
	ok, err := s.repo.Reading.SetReview(ctx, id, entity.Review{Rating: req.Rating, Review: req.Review})
	if err != nil {
		return nil, apperror.Internal("Failed to save review", err)
	}
	if !ok {
		return nil, errInvalid
	}

	s.log.Info("Review submitted",
		zap.String("reading_id", readingID),
		zap.Int("rating", req.Rating),
	)

	return s.reload(ctx, id)
}

func (s *readingService) FileDispute(ctx context.Context, caller Identity, readingID string, req *request.FileDisputeRequest) (*response.ReadingResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	if reading.ClientID != caller.UserID {
		return nil, apperror.Forbidden("Only the client who booked this reading can dispute it")
	}

	errInvalid := apperror.New(apperror.KindInvalidStateForDispute, "Only archived readings can be disputed")
	if reading.Status != entity.ReadingStatusArchived {
		return nil, errInvalid
	}

	dispute := entity.Dispute{
		Reason:    req.Reason,
		Status:    entity.DisputeStatusOpen,
		ClientID:  caller.UserID,
		CreatedAt: s.now(),
	}

	ok, err := s.repo.Reading.OpenDispute(ctx, id, dispute)
	if err != nil {
		return nil, apperror.Internal("Failed to file dispute", err)
	}
	if !ok {
		return nil, errInvalid
	}

	s.log.Info("Dispute filed",
		zap.String("reading_id", readingID),
		zap.String("client_id", caller.UserID.String()),
	)

	return s.reload(ctx, id)
}

func (s *readingService) ResolveDispute(ctx context.Context, caller Identity, readingID string, req *request.ResolveDisputeRequest) (*response.ReadingResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	resolution := strings.TrimSpace(req.Resolution)
	if resolution == "" {
		return nil, apperror.Validation("Validation failed", map[string]string{"resolution": "This field is required"})
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	if reading.Dispute == nil {
		return nil, apperror.New(apperror.KindInvalidState, "Reading has no dispute to resolve")
	}

	now := s.now()
	dispute := *reading.Dispute
	dispute.AdminResponse = &resolution
	dispute.Status = entity.DisputeStatusResolved
	dispute.ResolvedAt = &now

	if err := s.repo.Reading.UpdateDispute(ctx, id, dispute); err != nil {
		return nil, apperror.Internal("Failed to resolve dispute", err)
	}

	// Resolution is informational: status and credits stay as they are.
	s.log.Info("Dispute resolved",
		zap.String("reading_id", readingID),
		zap.String("admin_id", caller.UserID.String()),
		zap.String("status", string(reading.Status)),
	)

	notifyUser(ctx, s.notifier, s.log, notify.Notification{
		UserID:  reading.ClientID,
		Type:    notify.TypeDisputeResolved,
		Message: "Your dispute has been resolved",
		Data:    map[string]any{"readingId": reading.ID.String(), "resolution": resolution},
	})

	return s.reload(ctx, id)
}

func (s *readingService) reload(ctx context.Context, id uuid.UUID) (*response.ReadingResponse, error) {
	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}
	resp := response.ReadingToResponse(reading)
	return &resp, nil
}

func toReadingResponses(readings []*entity.Reading) []response.ReadingResponse {
	items := make([]response.ReadingResponse, len(readings))
	for i, reading := range readings {
		items[i] = response.ReadingToResponse(reading)
	}
	return items
}
