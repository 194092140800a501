package repository

import (
	"errors"

	"github.com/lambo313/auralumic-sub001/pkg/database"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrSlotTaken           = errors.New("reader slot already taken")
)

type Repository struct {
	User              UserRepository
	Reader            ReaderRepository
	Reading           ReadingRepository
	ScheduledReading  ScheduledReadingRepository
	CreditTransaction CreditTransactionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:              NewUserRepository(db, log),
		Reader:            NewReaderRepository(db, log),
		Reading:           NewReadingRepository(db, log),
		ScheduledReading:  NewScheduledReadingRepository(db, log),
		CreditTransaction: NewCreditTransactionRepository(db, log),
	}
}
