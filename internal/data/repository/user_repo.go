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

// UserRepository exposes the credit balance of a user. Balance changes go
// through DeductCredits/AddCredits only, each of which appends the given
// journal entry in the same transaction.
type UserRepository interface {
	GetCredits(ctx context.Context, id uuid.UUID) (int, error)

	// DeductCredits decrements by entry.Amount only if the balance covers it.
	// Returns ErrInsufficientCredits or ErrUserNotFound otherwise.
	DeductCredits(ctx context.Context, entry *entity.CreditTransaction) (int, error)
	AddCredits(ctx context.Context, entry *entity.CreditTransaction) (int, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) GetCredits(ctx context.Context, id uuid.UUID) (int, error) {
	query := `SELECT credits FROM users WHERE id = $1 AND deleted_at IS NULL`

	var credits int
	err := ur.db.QueryRow(ctx, query, id).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		ur.log.Error("Failed to get user credits",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return 0, fmt.Errorf("get credits for user %s: %w", id.String(), err)
	}

	return credits, nil
}

func (ur *userRepository) DeductCredits(ctx context.Context, entry *entity.CreditTransaction) (int, error) {
	// Floor-at-zero is enforced by the WHERE clause, so concurrent debits
	// serialise on the row lock and the loser sees no row.
	query := `
		UPDATE users
		SET credits = credits - $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND credits >= $2
		RETURNING credits
	`
	return ur.applyCredits(ctx, query, entry)
}

func (ur *userRepository) AddCredits(ctx context.Context, entry *entity.CreditTransaction) (int, error) {
	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING credits
	`
	return ur.applyCredits(ctx, query, entry)
}

func (ur *userRepository) applyCredits(ctx context.Context, query string, entry *entity.CreditTransaction) (int, error) {
	tx, err := ur.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin credit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, query, entry.UserID, entry.Amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`,
			entry.UserID,
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check user %s: %w", entry.UserID.String(), err)
		}
		if !exists {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientCredits
	}
	if err != nil {
		ur.log.Error("Failed to apply credits",
			zap.Error(err),
			zap.String("user_id", entry.UserID.String()),
			zap.String("type", string(entry.Type)),
			zap.Int("amount", entry.Amount),
		)
		return 0, fmt.Errorf("apply %s of %d credits for user %s: %w",
			entry.Type, entry.Amount, entry.UserID.String(), err)
	}

	entry.BalanceAfter = balance
	if err := insertCreditTransaction(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit credit transaction: %w", err)
	}

	return balance, nil
}
