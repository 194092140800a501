// internal/wire/wire.go
package wire

import (
	"net/http"

	"github.com/lambo313/auralumic-sub001/internal/adaptor"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/auth"
	"github.com/lambo313/auralumic-sub001/pkg/middleware"
	"github.com/lambo313/auralumic-sub001/pkg/notify"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(repo *repository.Repository, config *utils.Config, notifier notify.Notifier, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, notifier, logger)
	handler := adaptor.NewHandler(service, logger)
	verifier := auth.NewVerifier(config.JWT.Secret, config.JWT.Issuer)

	router := setupRouter(handler, verifier, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	verifier *auth.Verifier,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	authn := middleware.Authenticate(verifier, logger)

	// Apply routes
	wireReading(r, handler.Reading, authn, logger)
	wireAvailability(r, handler.Availability)
	wireCredit(r, handler.Credit, authn)
	wireAdmin(r, handler.Admin, authn, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
