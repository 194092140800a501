package response

import (
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
)

type CreditBalanceResponse struct {
	UserID  string `json:"userId"`
	Credits int    `json:"credits"`
}

type CreditTransactionResponse struct {
	ID           string              `json:"id"`
	Type         entity.CreditTxType `json:"type"`
	Amount       int                 `json:"amount"`
	BalanceAfter int                 `json:"balanceAfter"`
	ReadingID    *string             `json:"readingId,omitempty"`
	Reason       string              `json:"reason"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func CreditTransactionToResponse(entry *entity.CreditTransaction) CreditTransactionResponse {
	resp := CreditTransactionResponse{
		ID:           entry.ID.String(),
		Type:         entry.Type,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Reason:       entry.Reason,
		CreatedAt:    entry.CreatedAt,
	}
	if entry.ReadingID != nil {
		id := entry.ReadingID.String()
		resp.ReadingID = &id
	}
	return resp
}
