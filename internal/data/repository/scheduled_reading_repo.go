package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ScheduledReadingRepository reads the calendar projection. Rows are only
// written by ReadingRepository.CreateScheduled.
type ScheduledReadingRepository interface {
	FindByReadingID(ctx context.Context, readingID uuid.UUID) (*entity.ScheduledReading, error)
}

type scheduledReadingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduledReadingRepository(db database.PgxIface, log *zap.Logger) ScheduledReadingRepository {
	return &scheduledReadingRepository{
		db:  db,
		log: log.With(zap.String("repository", "scheduled_reading")),
	}
}

func (sr *scheduledReadingRepository) FindByReadingID(ctx context.Context, readingID uuid.UUID) (*entity.ScheduledReading, error) {
	query := `
		SELECT reading_id, scheduled_date, time_zone, created_at
		FROM scheduled_readings
		WHERE reading_id = $1
	`

	var s entity.ScheduledReading
	err := sr.db.QueryRow(ctx, query, readingID).Scan(
		&s.ReadingID,
		&s.ScheduledDate,
		&s.TimeZone,
		&s.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		sr.log.Error("Failed to find scheduled reading",
			zap.Error(err),
			zap.String("reading_id", readingID.String()),
		)
		return nil, fmt.Errorf("find scheduled reading: %w", err)
	}

	return &s, nil
}
