package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReadingRepository interface {
	Create(ctx context.Context, reading *entity.Reading) error
	// CreateScheduled inserts the reading and its calendar row under a
	// per-reader lock, re-checking for overlap first. Returns ErrSlotTaken
	// when another reading already occupies the interval.
	CreateScheduled(ctx context.Context, reading *entity.Reading, slot *entity.ScheduledReading) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reading, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*entity.Reading, error)
	CountByClientID(ctx context.Context, clientID uuid.UUID) (int64, error)
	FindByReaderID(ctx context.Context, readerID uuid.UUID, limit, offset int) ([]*entity.Reading, error)
	CountByReaderID(ctx context.Context, readerID uuid.UUID) (int64, error)

	// Business queries
	FindConflicting(ctx context.Context, readerID uuid.UUID, start, end time.Time) ([]*entity.Reading, error)
	CountByReaderAndStatus(ctx context.Context, readerID uuid.UUID, status entity.ReadingStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReadingStatus) error
	// TransitionStatus moves the reading to `to` only if its current status is
	// one of `from`. ok is false when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ReadingStatus, to entity.ReadingStatus) (bool, error)
	SetReview(ctx context.Context, id uuid.UUID, review entity.Review) (bool, error)
	OpenDispute(ctx context.Context, id uuid.UUID, dispute entity.Dispute) (bool, error)
	UpdateDispute(ctx context.Context, id uuid.UUID, dispute entity.Dispute) error
	// MarkRefunded claims the refund. It returns the status held before the
	// claim, and ok=false if the reading was already refunded.
	MarkRefunded(ctx context.Context, id uuid.UUID) (prior entity.ReadingStatus, ok bool, err error)
}

const readingColumns = `id, client_id, reader_id, topic, question, reading_option, scheduled_date,
	status, credits, review, dispute, completed_date, created_at, updated_at`

type readingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReadingRepository(db database.PgxIface, log *zap.Logger) ReadingRepository {
	return &readingRepository{
		db:  db,
		log: log.With(zap.String("repository", "reading")),
	}
}

func (r *readingRepository) Create(ctx context.Context, reading *entity.Reading) error {
	if err := insertReading(ctx, r.db, reading); err != nil {
		r.log.Error("Failed to create reading",
			zap.Error(err),
			zap.String("reading_id", reading.ID.String()),
			zap.String("client_id", reading.ClientID.String()),
		)
		return fmt.Errorf("create reading: %w", err)
	}
	return nil
}

func (r *readingRepository) CreateScheduled(ctx context.Context, reading *entity.Reading, slot *entity.ScheduledReading) error {
	start, end, ok := reading.Interval()
	if !ok {
		return fmt.Errorf("create scheduled reading %s: no scheduled date", reading.ID.String())
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scheduled reading transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialises bookings per reader until commit.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, reading.ReaderID.String()); err != nil {
		return fmt.Errorf("lock reader calendar: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM readings
			WHERE reader_id = $1
			  AND status = ANY($2)
			  AND scheduled_date IS NOT NULL
			  AND scheduled_date < $4
			  AND scheduled_date + make_interval(mins => (reading_option->'timeSpan'->>'duration')::int) > $3
		)
	`, reading.ReaderID, calendarStatuses(), start, end).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check reader overlap: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	if err := insertReading(ctx, tx, reading); err != nil {
		return fmt.Errorf("create reading: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO scheduled_readings (reading_id, scheduled_date, time_zone, created_at)
		VALUES ($1, $2, $3, $4)
	`, slot.ReadingID, slot.ScheduledDate, slot.TimeZone, slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("create scheduled reading row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("Failed to commit scheduled reading",
			zap.Error(err),
			zap.String("reading_id", reading.ID.String()),
		)
		return fmt.Errorf("commit scheduled reading: %w", err)
	}

	return nil
}

func (r *readingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM readings WHERE id = $1`

	reading, err := scanReading(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reading by ID",
			zap.Error(err),
			zap.String("reading_id", id.String()),
		)
		return nil, fmt.Errorf("find reading by ID %s: %w", id.String(), err)
	}

	return reading, nil
}

func (r *readingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*entity.Reading, error) {
	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryReadings(ctx, query, clientID, limit, offset)
}

func (r *readingRepository) CountByClientID(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM readings WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count readings by client: %w", err)
	}
	return count, nil
}

func (r *readingRepository) FindByReaderID(ctx context.Context, readerID uuid.UUID, limit, offset int) ([]*entity.Reading, error) {
	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE reader_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryReadings(ctx, query, readerID, limit, offset)
}

func (r *readingRepository) CountByReaderID(ctx context.Context, readerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM readings WHERE reader_id = $1`, readerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count readings by reader: %w", err)
	}
	return count, nil
}

func (r *readingRepository) FindConflicting(ctx context.Context, readerID uuid.UUID, start, end time.Time) ([]*entity.Reading, error) {
	query := `SELECT ` + readingColumns + `
		FROM readings
		WHERE reader_id = $1
		  AND status = ANY($2)
		  AND scheduled_date IS NOT NULL
		  AND scheduled_date < $4
		  AND scheduled_date + make_interval(mins => (reading_option->'timeSpan'->>'duration')::int) > $3
		ORDER BY scheduled_date
	`
	return r.queryReadings(ctx, query, readerID, calendarStatuses(), start, end)
}

func (r *readingRepository) CountByReaderAndStatus(ctx context.Context, readerID uuid.UUID, status entity.ReadingStatus) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM readings WHERE reader_id = $1 AND status = $2`,
		readerID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count readings by status: %w", err)
	}
	return count, nil
}

func (r *readingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReadingStatus) error {
	query := `
		UPDATE readings
		SET status = $2, completed_date = COALESCE($3, completed_date), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status, completedAt(status))
	if err != nil {
		r.log.Error("Failed to update reading status",
			zap.Error(err),
			zap.String("reading_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update reading status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reading %s not found", id.String())
	}

	return nil
}

func (r *readingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ReadingStatus, to entity.ReadingStatus) (bool, error) {
	query := `
		UPDATE readings
		SET status = $3, completed_date = COALESCE($4, completed_date), updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
	`

	tag, err := r.db.Exec(ctx, query, id, statusStrings(from), to, completedAt(to))
	if err != nil {
		r.log.Error("Failed to transition reading status",
			zap.Error(err),
			zap.String("reading_id", id.String()),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition reading status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *readingRepository) SetReview(ctx context.Context, id uuid.UUID, review entity.Review) (bool, error) {
	query := `
		UPDATE readings
		SET review = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	tag, err := r.db.Exec(ctx, query, id, review, entity.ReadingStatusArchived)
	if err != nil {
		return false, fmt.Errorf("set review: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *readingRepository) OpenDispute(ctx context.Context, id uuid.UUID, dispute entity.Dispute) (bool, error) {
	query := `
		UPDATE readings
		SET dispute = $2, status = $4, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	tag, err := r.db.Exec(ctx, query, id, dispute, entity.ReadingStatusArchived, entity.ReadingStatusDisputed)
	if err != nil {
		return false, fmt.Errorf("open dispute: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *readingRepository) UpdateDispute(ctx context.Context, id uuid.UUID, dispute entity.Dispute) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE readings SET dispute = $2, updated_at = NOW() WHERE id = $1`,
		id, dispute,
	)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reading %s not found", id.String())
	}
	return nil
}

func (r *readingRepository) MarkRefunded(ctx context.Context, id uuid.UUID) (entity.ReadingStatus, bool, error) {
	query := `
		UPDATE readings AS r
		SET status = $2, updated_at = NOW()
		FROM (SELECT id, status FROM readings WHERE id = $1 FOR UPDATE) AS prior
		WHERE r.id = prior.id AND prior.status <> $2
		RETURNING prior.status
	`

	var prior entity.ReadingStatus
	err := r.db.QueryRow(ctx, query, id, entity.ReadingStatusRefunded).Scan(&prior)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.log.Error("Failed to mark reading refunded",
			zap.Error(err),
			zap.String("reading_id", id.String()),
		)
		return "", false, fmt.Errorf("mark reading refunded: %w", err)
	}

	return prior, true, nil
}

func (r *readingRepository) queryReadings(ctx context.Context, query string, args ...any) ([]*entity.Reading, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query readings", zap.Error(err))
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := make([]*entity.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, nil
}

func insertReading(ctx context.Context, db execer, reading *entity.Reading) error {
	query := `
		INSERT INTO readings (` + readingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := db.Exec(ctx, query,
		reading.ID,
		reading.ClientID,
		reading.ReaderID,
		reading.Topic,
		reading.Question,
		reading.ReadingOption,
		reading.ScheduledDate,
		reading.Status,
		reading.Credits,
		reading.Review,
		reading.Dispute,
		reading.CompletedDate,
		reading.CreatedAt,
		reading.UpdatedAt,
	)
	return err
}

func scanReading(row pgx.Row) (*entity.Reading, error) {
	var reading entity.Reading
	err := row.Scan(
		&reading.ID,
		&reading.ClientID,
		&reading.ReaderID,
		&reading.Topic,
		&reading.Question,
		&reading.ReadingOption,
		&reading.ScheduledDate,
		&reading.Status,
		&reading.Credits,
		&reading.Review,
		&reading.Dispute,
		&reading.CompletedDate,
		&reading.CreatedAt,
		&reading.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func calendarStatuses() []string {
	statuses := make([]string, 0, 2)
	for _, s := range entity.ReadingStatuses() {
		if s.OccupiesCalendar() {
			statuses = append(statuses, string(s))
		}
	}
	return statuses
}

func statusStrings(statuses []entity.ReadingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func completedAt(status entity.ReadingStatus) *time.Time {
	if status != entity.ReadingStatusArchived && status != entity.ReadingStatusCompleted {
		return nil
	}
	now := time.Now()
	return &now
}
