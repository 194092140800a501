package wire

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/adaptor"
	"github.com/lambo313/auralumic-sub001/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	authn func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(authn)
		r.Use(middleware.Admin(log))

		// PATCH /api/admin/readings/{id}/status - Force any status
		r.Patch("/readings/{id}/status", adminHandler.ForceStatus)

		// POST /api/admin/readings/{id}/refund - Return credits to the client
		r.Post("/readings/{id}/refund", adminHandler.RefundReading)

		// POST /api/admin/readings/{id}/dispute/resolve - Close a dispute
		r.Post("/readings/{id}/dispute/resolve", adminHandler.ResolveDispute)

		// POST /api/admin/users/{id}/credits - Grant credits
		r.Post("/users/{id}/credits", adminHandler.GrantCredits)
	})
}
