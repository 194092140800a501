package usecase

import (
	"context"
	"errors"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/lambo313/auralumic-sub001/internal/usecase")

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return apperror.Validation("Validation failed", errs)
	}
	return nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Validation("Validation failed", map[string]string{
			field: "Must be a valid UUID",
		})
	}
	return id, nil
}

func requireAuth(caller Identity) error {
	if !caller.Authenticated() {
		return apperror.Unauthorized("Authentication required")
	}
	return nil
}

func requireAdmin(caller Identity) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperror.Forbidden("Admin access required")
	}
	return nil
}

// ledgerError translates store sentinels into caller-facing kinds.
func ledgerError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientCredits):
		return apperror.Wrap(apperror.KindInsufficientFunds, "Insufficient credits", err)
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.Wrap(apperror.KindNotFound, "User not found", err)
	default:
		return apperror.Internal("Ledger operation failed", err)
	}
}

// loadReading returns NotFound when the reading does not exist.
func loadReading(ctx context.Context, repo repository.ReadingRepository, id uuid.UUID) (*entity.Reading, error) {
	reading, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("Failed to load reading", err)
	}
	if reading == nil {
		return nil, apperror.NotFound("Reading not found")
	}
	return reading, nil
}

// notifyUser is fire-and-forget: delivery failures are logged only.
func notifyUser(ctx context.Context, notifier notify.Notifier, log *zap.Logger, n notify.Notification) {
	if err := notifier.Notify(ctx, n); err != nil {
		trace.SpanFromContext(ctx).AddEvent("notification.dropped", trace.WithAttributes(
			attribute.String("notification.type", n.Type),
			attribute.String("error", err.Error()),
		))
		log.Warn("Failed to deliver notification",
			zap.Error(err),
			zap.String("user_id", n.UserID.String()),
			zap.String("type", n.Type),
		)
	}
}
