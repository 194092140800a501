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

type AdminHandler struct {
	service usecase.AdminService
	reading usecase.ReadingService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.AdminService, reading usecase.ReadingService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		reading: reading,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// ForceStatus handles PATCH /api/admin/readings/{id}/status (admin only)
func (h *AdminHandler) ForceStatus(w http.ResponseWriter, r *http.Request) {
	var req request.ForceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.ForceStatus(r.Context(), identity(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "force reading status")
		return
	}

	utils.ResponseSuccess(w, "Reading status updated", result)
}

// RefundReading handles POST /api/admin/readings/{id}/refund (admin only)
func (h *AdminHandler) RefundReading(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefundReading(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "refund reading")
		return
	}

	utils.ResponseSuccess(w, "Reading refunded", result)
}

// ResolveDispute handles POST /api/admin/readings/{id}/dispute/resolve (admin only)
func (h *AdminHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req request.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reading, err := h.reading.ResolveDispute(r.Context(), identity(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "resolve dispute")
		return
	}

	utils.ResponseSuccess(w, "Dispute resolved", reading)
}

// GrantCredits handles POST /api/admin/users/{id}/credits (admin only)
func (h *AdminHandler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req request.GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	balance, err := h.service.GrantCredits(r.Context(), identity(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "grant credits")
		return
	}

	utils.ResponseSuccess(w, "Credits granted", balance)
}
