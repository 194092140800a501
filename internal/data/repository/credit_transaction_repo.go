package repository

import (
	"context"
	"fmt"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type CreditTransactionRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.CreditTransaction, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type creditTransactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCreditTransactionRepository(db database.PgxIface, log *zap.Logger) CreditTransactionRepository {
	return &creditTransactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "credit_transaction")),
	}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertCreditTransaction(ctx context.Context, db execer, entry *entity.CreditTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO credit_transactions (id, user_id, type, amount, balance_after, reading_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := db.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Type,
		entry.Amount,
		entry.BalanceAfter,
		entry.ReadingID,
		entry.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

func (cr *creditTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.CreditTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_after, reading_id, reason, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := cr.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		cr.log.Error("Failed to query credit transactions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("query credit transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]*entity.CreditTransaction, 0)
	for rows.Next() {
		entry, err := scanCreditTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit transaction: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit transactions: %w", err)
	}

	return entries, nil
}

func (cr *creditTransactionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := cr.db.QueryRow(ctx, `SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count credit transactions: %w", err)
	}
	return count, nil
}

func scanCreditTransaction(row pgx.Row) (*entity.CreditTransaction, error) {
	var entry entity.CreditTransaction
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Type,
		&entry.Amount,
		&entry.BalanceAfter,
		&entry.ReadingID,
		&entry.Reason,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
