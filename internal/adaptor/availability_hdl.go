package adaptor

import (
	"net/http"
	"strconv"

	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	service usecase.AvailabilityService
	log     *zap.Logger
}

func NewAvailabilityHandler(service usecase.AvailabilityService, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log.With(zap.String("handler", "availability")),
	}
}

// GetAvailableSlots handles GET /api/readers/{id}/slots?date=YYYY-MM-DD&duration=N (public)
func (h *AvailabilityHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Invalid numbers fall through to validation as 0.
	duration, _ := strconv.Atoi(query.Get("duration"))

	req := &request.AvailableSlotsRequest{
		Date:     query.Get("date"),
		Duration: duration,
	}

	slots, err := h.service.ListAvailableSlots(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}
