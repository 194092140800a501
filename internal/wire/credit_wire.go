package wire

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCredit(r chi.Router, creditHandler *adaptor.CreditHandler, authn func(http.Handler) http.Handler) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Route("/api/user/credits", func(r chi.Router) {
		r.Use(authn)

		// GET /api/user/credits - Current balance
		r.Get("/", creditHandler.GetBalance)

		// GET /api/user/credits/transactions - Credit journal
		r.Get("/transactions", creditHandler.ListTransactions)
	})
}
