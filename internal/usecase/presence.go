package usecase

import (
	"context"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"

	"go.uber.org/zap"
)

// presenceReconciler keeps a reader's presence in step with their readings.
// It is best-effort: failures are logged and never returned, so they cannot
// block the status change that triggered them.
type presenceReconciler struct {
	repo *repository.Repository
	log  *zap.Logger
}

func newPresenceReconciler(repo *repository.Repository, log *zap.Logger) *presenceReconciler {
	return &presenceReconciler{
		repo: repo,
		log:  log.With(zap.String("service", "presence")),
	}
}

// Apply runs after reading has been written with status.
func (p *presenceReconciler) Apply(ctx context.Context, reading *entity.Reading, status entity.ReadingStatus) {
	switch status {
	case entity.ReadingStatusInProgress:
		p.set(ctx, reading, entity.PresenceBusy)

	case entity.ReadingStatusArchived:
		active, err := p.repo.Reading.CountByReaderAndStatus(ctx, reading.ReaderID, entity.ReadingStatusInProgress)
		if err != nil {
			p.log.Warn("Failed to count active readings",
				zap.Error(err),
				zap.String("reader_id", reading.ReaderID.String()),
			)
			return
		}
		if active == 0 {
			p.set(ctx, reading, entity.PresenceAvailable)
		}

	case entity.ReadingStatusSuggested, entity.ReadingStatusInstantQueue, entity.ReadingStatusScheduled,
		entity.ReadingStatusMessageQueue, entity.ReadingStatusCompleted, entity.ReadingStatusDisputed,
		entity.ReadingStatusRefunded:
		// no presence change
	}
}

func (p *presenceReconciler) set(ctx context.Context, reading *entity.Reading, presence entity.PresenceStatus) {
	if err := p.repo.Reader.UpdateStatus(ctx, reading.ReaderID, presence); err != nil {
		p.log.Warn("Failed to update reader presence",
			zap.Error(err),
			zap.String("reader_id", reading.ReaderID.String()),
			zap.String("presence", string(presence)),
		)
		return
	}
	p.log.Info("Reader presence updated",
		zap.String("reader_id", reading.ReaderID.String()),
		zap.String("reading_id", reading.ID.String()),
		zap.String("presence", string(presence)),
	)
}
