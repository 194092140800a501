package wire

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/adaptor"
	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReading(
	r chi.Router,
	readingHandler *adaptor.ReadingHandler,
	authn func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(authn)

		// POST /api/readings - Book a reading (debits credits)
		r.Post("/api/readings", readingHandler.CreateBooking)

		// GET /api/readings/{id} - Reading details (client, reader or admin)
		r.Get("/api/readings/{id}", readingHandler.GetReading)

		// GET /api/user/readings - Client's own readings
		r.Get("/api/user/readings", readingHandler.ListClientReadings)

		// POST /api/readings/{id}/review - Review an archived reading
		r.Post("/api/readings/{id}/review", readingHandler.SubmitReview)

		// POST /api/readings/{id}/dispute - Dispute an archived reading
		r.Post("/api/readings/{id}/dispute", readingHandler.FileDispute)
	})

	// ==================== READER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireRole(log, string(entity.RoleReader)))

		// GET /api/reader/readings - Reader's queue
		r.Get("/api/reader/readings", readingHandler.ListReaderReadings)

		// POST /api/readings/{id}/start - Begin session
		r.Post("/api/readings/{id}/start", readingHandler.StartReading)

		// POST /api/readings/{id}/finish - End session
		r.Post("/api/readings/{id}/finish", readingHandler.FinishReading)
	})
}
