package usecase

import (
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/pkg/notify"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Ledger       LedgerService
	Availability AvailabilityService
	Reading      ReadingService
	Booking      BookingService
	Admin        AdminService
}

func NewService(repo *repository.Repository, config *utils.Config, notifier notify.Notifier, log *zap.Logger) *Service {
	ledger := NewLedgerService(repo, log)
	availability := NewAvailabilityService(repo, time.Duration(config.Booking.SlotStepMinutes)*time.Minute, log)

	return &Service{
		Ledger:       ledger,
		Availability: availability,
		Reading:      NewReadingService(repo, notifier, log),
		Booking:      NewBookingService(repo, ledger, availability, notifier, config.Booking.EnforceQuotedPrice, log),
		Admin:        NewAdminService(repo, ledger, notifier, log),
	}
}
