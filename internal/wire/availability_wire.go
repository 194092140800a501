package wire

import (
	"github.com/lambo313/auralumic-sub001/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAvailability(r chi.Router, availabilityHandler *adaptor.AvailabilityHandler) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/readers/{id}/slots?date=YYYY-MM-DD&duration=N
	r.Get("/api/readers/{id}/slots", availabilityHandler.GetAvailableSlots)
}
