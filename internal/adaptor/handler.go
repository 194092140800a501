package adaptor

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Reading      *ReadingHandler
	Availability *AvailabilityHandler
	Credit       *CreditHandler
	Admin        *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Reading:      NewReadingHandler(service.Booking, service.Reading, log),
		Availability: NewAvailabilityHandler(service.Availability, log),
		Credit:       NewCreditHandler(service.Ledger, log),
		Admin:        NewAdminHandler(service.Admin, service.Reading, log),
	}
}

// identity builds the caller from what Authenticate put on the context.
// Unauthenticated requests yield the zero Identity.
func identity(r *http.Request) usecase.Identity {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return usecase.Identity{}
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Identity{UserID: userID, Role: entity.UserRole(role)}
}

func paginationFromQuery(r *http.Request) *request.PaginatedRequest {
	query := r.URL.Query()
	return &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("perPage"), 10),
	}
}

// handleServiceError maps an application error onto the response envelope.
// Causes are logged, never written to the client.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("Internal server error", err)
	}

	status := appErr.Kind.HTTPStatus()
	fields := []zap.Field{
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("code", string(appErr.Kind)),
	}

	if status >= http.StatusInternalServerError {
		log.Error(operation+" failed", fields...)
		utils.ResponseError(w, status, string(appErr.Kind), "Internal server error", nil)
		return
	}

	log.Warn(operation+" rejected", fields...)

	var details any
	if len(appErr.Details) > 0 {
		details = appErr.Details
	}
	utils.ResponseError(w, status, string(appErr.Kind), appErr.Message, details)
}
