package adaptor

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"go.uber.org/zap"
)

type CreditHandler struct {
	service usecase.LedgerService
	log     *zap.Logger
}

func NewCreditHandler(service usecase.LedgerService, log *zap.Logger) *CreditHandler {
	return &CreditHandler{
		service: service,
		log:     log.With(zap.String("handler", "credit")),
	}
}

// GetBalance handles GET /api/user/credits (protected)
func (h *CreditHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.GetBalance(r.Context(), identity(r))
	if err != nil {
		handleServiceError(w, h.log, err, "get credit balance")
		return
	}

	utils.ResponseSuccess(w, "success", balance)
}

// ListTransactions handles GET /api/user/credits/transactions (protected)
func (h *CreditHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListTransactions(r.Context(), identity(r), paginationFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list credit transactions")
		return
	}

	utils.ResponseSuccess(w, "success", entries)
}
