package usecase

import (
	"context"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/dto/response"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerRef describes why a balance moved. It ends up in the credit journal.
type LedgerRef struct {
	Type      entity.CreditTxType // defaults to refund for credits
	ReadingID *uuid.UUID
	Reason    string
}

type LedgerService interface {
	// ValidateCredits is a pure check; it never mutates the balance.
	ValidateCredits(ctx context.Context, userID uuid.UUID, amount int) error
	DeductCredits(ctx context.Context, userID uuid.UUID, amount int, ref LedgerRef) (int, error)
	CreditCredits(ctx context.Context, userID uuid.UUID, amount int, ref LedgerRef) (int, error)

	GetBalance(ctx context.Context, caller Identity) (*response.CreditBalanceResponse, error)
	ListTransactions(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CreditTransactionResponse], error)
}

type ledgerService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewLedgerService(repo *repository.Repository, log *zap.Logger) LedgerService {
	return &ledgerService{
		repo: repo,
		log:  log.With(zap.String("service", "ledger")),
	}
}

func (s *ledgerService) ValidateCredits(ctx context.Context, userID uuid.UUID, amount int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	balance, err := s.repo.User.GetCredits(ctx, userID)
	if err != nil {
		return ledgerError(err)
	}
	if balance < amount {
		s.log.Info("Insufficient credits",
			zap.String("user_id", userID.String()),
			zap.Int("balance", balance),
			zap.Int("amount", amount),
		)
		return apperror.New(apperror.KindInsufficientFunds, "Insufficient credits")
	}

	return nil
}

func (s *ledgerService) DeductCredits(ctx context.Context, userID uuid.UUID, amount int, ref LedgerRef) (int, error) {
	if err := validAmount(amount); err != nil {
		return 0, err
	}

	entry := &entity.CreditTransaction{
		UserID:    userID,
		Type:      entity.CreditTxDebit,
		Amount:    amount,
		ReadingID: ref.ReadingID,
		Reason:    ref.Reason,
	}

	balance, err := s.repo.User.DeductCredits(ctx, entry)
	if err != nil {
		return 0, ledgerError(err)
	}

	s.log.Info("Credits deducted",
		zap.String("user_id", userID.String()),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)

	return balance, nil
}

func (s *ledgerService) CreditCredits(ctx context.Context, userID uuid.UUID, amount int, ref LedgerRef) (int, error) {
	if err := validAmount(amount); err != nil {
		return 0, err
	}

	txType := ref.Type
	if txType == "" {
		txType = entity.CreditTxRefund
	}

	entry := &entity.CreditTransaction{
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		ReadingID: ref.ReadingID,
		Reason:    ref.Reason,
	}

	balance, err := s.repo.User.AddCredits(ctx, entry)
	if err != nil {
		return 0, ledgerError(err)
	}

	s.log.Info("Credits added",
		zap.String("user_id", userID.String()),
		zap.String("type", string(txType)),
		zap.Int("amount", amount),
		zap.Int("balance", balance),
	)

	return balance, nil
}

func (s *ledgerService) GetBalance(ctx context.Context, caller Identity) (*response.CreditBalanceResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	balance, err := s.repo.User.GetCredits(ctx, caller.UserID)
	if err != nil {
		return nil, ledgerError(err)
	}

	return &response.CreditBalanceResponse{
		UserID:  caller.UserID.String(),
		Credits: balance,
	}, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, caller Identity, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CreditTransactionResponse], error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	entries, err := s.repo.CreditTransaction.FindByUserID(ctx, caller.UserID, limit, offset)
	if err != nil {
		s.log.Error("Failed to list credit transactions",
			zap.Error(err),
			zap.String("user_id", caller.UserID.String()),
		)
		return nil, apperror.Internal("Failed to list credit transactions", err)
	}

	total, err := s.repo.CreditTransaction.CountByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, apperror.Internal("Failed to count credit transactions", err)
	}

	items := make([]response.CreditTransactionResponse, len(entries))
	for i, entry := range entries {
		items[i] = response.CreditTransactionToResponse(entry)
	}

	return response.NewPaginatedResponse(items, req.Page, limit, total), nil
}

func validAmount(amount int) error {
	if amount <= 0 {
		return apperror.Validation("Validation failed", map[string]string{
			"amount": "Must be greater than 0",
		})
	}
	return nil
}
