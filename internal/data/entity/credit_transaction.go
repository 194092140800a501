package entity

import (
	"github.com/google/uuid"
)

type CreditTxType string

const (
	CreditTxDebit  CreditTxType = "debit"
	CreditTxRefund CreditTxType = "refund"
	CreditTxGrant  CreditTxType = "grant"
)

// CreditTransaction is an append-only journal row written in the same store
// transaction as the balance change it records.
type CreditTransaction struct {
	BaseSimple
	UserID       uuid.UUID    `db:"user_id"`
	Type         CreditTxType `db:"type"`
	Amount       int          `db:"amount"`
	BalanceAfter int          `db:"balance_after"`
	ReadingID    *uuid.UUID   `db:"reading_id"`
	Reason       string       `db:"reason"`
}
