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

type ReaderRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Reader, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, status entity.PresenceStatus) error
}

type readerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReaderRepository(db database.PgxIface, log *zap.Logger) ReaderRepository {
	return &readerRepository{
		db:  db,
		log: log.With(zap.String("repository", "reader")),
	}
}

func (rr *readerRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Reader, error) {
	query := `
		SELECT user_id, display_name, status, availability, updated_at
		FROM readers
		WHERE user_id = $1
	`

	var reader entity.Reader
	err := rr.db.QueryRow(ctx, query, userID).Scan(
		&reader.UserID,
		&reader.DisplayName,
		&reader.Status,
		&reader.Availability,
		&reader.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		rr.log.Error("Failed to find reader",
			zap.Error(err),
			zap.String("reader_id", userID.String()),
		)
		return nil, fmt.Errorf("find reader %s: %w", userID.String(), err)
	}

	return &reader, nil
}

func (rr *readerRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status entity.PresenceStatus) error {
	query := `UPDATE readers SET status = $2, updated_at = NOW() WHERE user_id = $1`

	tag, err := rr.db.Exec(ctx, query, userID, status)
	if err != nil {
		rr.log.Error("Failed to update reader status",
			zap.Error(err),
			zap.String("reader_id", userID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update reader status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reader %s not found", userID.String())
	}

	return nil
}
