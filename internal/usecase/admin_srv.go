package usecase

import (
	"context"
	"fmt"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/dto/response"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AdminService is the administrative override path. ForceStatus applies any
// recognised status without lifecycle checks.
type AdminService interface {
	ForceStatus(ctx context.Context, caller Identity, readingID string, req *request.ForceStatusRequest) (*response.StatusChangeResponse, error)
	RefundReading(ctx context.Context, caller Identity, readingID string) (*response.RefundResponse, error)
	GrantCredits(ctx context.Context, caller Identity, userID string, req *request.GrantCreditsRequest) (*response.CreditBalanceResponse, error)
}

type adminService struct {
	repo     *repository.Repository
	ledger   LedgerService
	presence *presenceReconciler
	notifier notify.Notifier
	log      *zap.Logger
}

func NewAdminService(repo *repository.Repository, ledger LedgerService, notifier notify.Notifier, log *zap.Logger) AdminService {
	return &adminService{
		repo:     repo,
		ledger:   ledger,
		presence: newPresenceReconciler(repo, log),
		notifier: notifier,
		log:      log.With(zap.String("service", "admin")),
	}
}

func (s *adminService) ForceStatus(ctx context.Context, caller Identity, readingID string, req *request.ForceStatusRequest) (*response.StatusChangeResponse, error) {
	ctx, span := tracer.Start(ctx, "admin.ForceStatus")
	defer span.End()

	resp, err := s.forceStatus(ctx, caller, readingID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("reading.id", readingID),
		attribute.String("reading.status.prior", resp.PreviousStatus.String()),
		attribute.String("reading.status", resp.Reading.Status.String()),
	)
	return resp, nil
}

func (s *adminService) forceStatus(ctx context.Context, caller Identity, readingID string, req *request.ForceStatusRequest) (*response.StatusChangeResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	status, err := entity.ParseReadingStatus(req.Status)
	if err != nil {
		return nil, apperror.Validation("Validation failed", map[string]string{"status": "Unknown reading status"})
	}

	id, err := parseID("id", readingID)
	if err != nil {
		return nil, err
	}

	reading, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}
	prior := reading.Status

	if err := s.repo.Reading.UpdateStatus(ctx, id, status); err != nil {
		s.log.Error("Failed to force reading status",
			zap.Error(err),
			zap.String("reading_id", readingID),
		)
		return nil, apperror.Internal("Failed to update reading status", err)
	}

	// Audit trail for the override.
	s.log.Info("Reading status forced",
		zap.String("reading_id", readingID),
		zap.String("admin_id", caller.UserID.String()),
		zap.String("from", string(prior)),
		zap.String("to", string(status)),
	)

	s.presence.Apply(ctx, reading, status)

	notifyUser(ctx, s.notifier, s.log, notify.Notification{
		UserID:  reading.ClientID,
		Type:    notify.TypeReadingStatus,
		Message: "Your reading is now " + status.String(),
		Data:    map[string]any{"readingId": reading.ID.String(), "status": status, "previousStatus": prior},
	})

	updated, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	return &response.StatusChangeResponse{
		Reading:        response.ReadingToResponse(updated),
		PreviousStatus: prior,
	}, nil
}

func (s *adminService) RefundReading(ctx context.Context, caller Identity, readingID string) (*response.RefundResponse, error) {
	ctx, span := tracer.Start(ctx, "admin.RefundReading")
	defer span.End()

	resp, err := s.refundReading(ctx, caller, readingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("credits.refunded", resp.Refunded))
	return resp, nil
}

func (s *adminService) refundReading(ctx context.Context, caller Identity, readingID string) (*response.RefundResponse, error) {
	if err := requireAdmin(caller); err != nil {
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

	// Claim before crediting; a second refund finds nothing to claim.
	prior, ok, err := s.repo.Reading.MarkRefunded(ctx, id)
	if err != nil {
		return nil, apperror.Internal("Failed to refund reading", err)
	}
	if !ok {
		return nil, apperror.New(apperror.KindInvalidState, "Reading is already refunded")
	}

	balance, err := s.ledger.CreditCredits(ctx, reading.ClientID, reading.Credits, LedgerRef{
		Type:      entity.CreditTxRefund,
		ReadingID: &reading.ID,
		Reason:    fmt.Sprintf("admin refund by %s", caller.UserID),
	})
	if err != nil {
		s.log.Error("Refund credit failed, restoring status",
			zap.Error(err),
			zap.String("reading_id", readingID),
			zap.String("status", string(prior)),
		)
		if restoreErr := s.repo.Reading.UpdateStatus(context.WithoutCancel(ctx), id, prior); restoreErr != nil {
			s.log.Error("Failed to restore reading status after refund failure",
				zap.Error(restoreErr),
				zap.String("reading_id", readingID),
			)
		}
		return nil, apperror.Internal("Failed to refund credits", err)
	}

	s.log.Info("Reading refunded",
		zap.String("reading_id", readingID),
		zap.String("admin_id", caller.UserID.String()),
		zap.String("from", string(prior)),
		zap.Int("credits", reading.Credits),
		zap.Int("balance", balance),
	)

	notifyUser(ctx, s.notifier, s.log, notify.Notification{
		UserID:  reading.ClientID,
		Type:    notify.TypeReadingRefunded,
		Message: fmt.Sprintf("%d credits have been returned to your balance", reading.Credits),
		Data:    map[string]any{"readingId": reading.ID.String(), "credits": reading.Credits},
	})

	updated, err := loadReading(ctx, s.repo.Reading, id)
	if err != nil {
		return nil, err
	}

	return &response.RefundResponse{
		Reading:       response.ReadingToResponse(updated),
		Refunded:      reading.Credits,
		CreditBalance: balance,
	}, nil
}

func (s *adminService) GrantCredits(ctx context.Context, caller Identity, userID string, req *request.GrantCreditsRequest) (*response.CreditBalanceResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	id, err := parseID("id", userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.CreditCredits(ctx, id, req.Amount, LedgerRef{
		Type:   entity.CreditTxGrant,
		Reason: req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Credits granted",
		zap.String("user_id", userID),
		zap.String("admin_id", caller.UserID.String()),
		zap.Int("amount", req.Amount),
	)

	return &response.CreditBalanceResponse{UserID: id.String(), Credits: balance}, nil
}
