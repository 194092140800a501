package adaptor

import (
	"encoding/json"
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReadingHandler struct {
	booking usecase.BookingService
	service usecase.ReadingService
	log     *zap.Logger
}

func NewReadingHandler(booking usecase.BookingService, service usecase.ReadingService, log *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		booking: booking,
		service: service,
		log:     log.With(zap.String("handler", "reading")),
	}
}

// CreateBooking handles POST /api/readings (protected)
func (h *ReadingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.booking.CreateBooking(r.Context(), identity(r), &req)
	if err != nil {
		h.handleServiceError(w, err, "create booking")
		return
	}

	utils.ResponseSuccess(w, "Reading booked successfully", booking)
}

// GetReading handles GET /api/readings/{id} (protected)
func (h *ReadingHandler) GetReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.service.GetReading(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get reading")
		return
	}

	utils.ResponseSuccess(w, "success", reading)
}

// ListClientReadings handles GET /api/user/readings (protected)
func (h *ReadingHandler) ListClientReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.service.ListClientReadings(r.Context(), identity(r), paginationFromQuery(r))
	if err != nil {
		h.handleServiceError(w, err, "list client readings")
		return
	}

	utils.ResponseSuccess(w, "success", readings)
}

// ListReaderReadings handles GET /api/reader/readings (reader only)
func (h *ReadingHandler) ListReaderReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.service.ListReaderReadings(r.Context(), identity(r), paginationFromQuery(r))
	if err != nil {
		h.handleServiceError(w, err, "list reader readings")
		return
	}

	utils.ResponseSuccess(w, "success", readings)
}

// StartReading handles POST /api/readings/{id}/start (reader only)
func (h *ReadingHandler) StartReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.service.StartReading(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "start reading")
		return
	}

	utils.ResponseSuccess(w, "Reading started", reading)
}

// FinishReading handles POST /api/readings/{id}/finish (reader only)
func (h *ReadingHandler) FinishReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.service.FinishReading(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "finish reading")
		return
	}

	utils.ResponseSuccess(w, "Reading finished", reading)
}

// SubmitReview handles POST /api/readings/{id}/review (protected)
func (h *ReadingHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reading, err := h.service.SubmitReview(r.Context(), identity(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "submit review")
		return
	}

	utils.ResponseSuccess(w, "Review submitted successfully", reading)
}

// FileDispute handles POST /api/readings/{id}/dispute (protected)
func (h *ReadingHandler) FileDispute(w http.ResponseWriter, r *http.Request) {
	var req request.FileDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reading, err := h.service.FileDispute(r.Context(), identity(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "file dispute")
		return
	}

	utils.ResponseSuccess(w, "Dispute filed successfully", reading)
}

func (h *ReadingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	handleServiceError(w, h.log, err, operation)
}
