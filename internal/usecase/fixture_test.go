package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/data/repository/memory"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store down")

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) ofType(typ string) []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Notification
	for _, msg := range n.sent {
		if msg.Type == typ {
			out = append(out, msg)
		}
	}
	return out
}

// failingReadings injects store failures into the reading repository.
type failingReadings struct {
	repository.ReadingRepository
	createErr    error
	scheduledErr error
}

func (f *failingReadings) Create(ctx context.Context, r *entity.Reading) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.ReadingRepository.Create(ctx, r)
}

func (f *failingReadings) CreateScheduled(ctx context.Context, r *entity.Reading, s *entity.ScheduledReading) error {
	if f.scheduledErr != nil {
		return f.scheduledErr
	}
	return f.ReadingRepository.CreateScheduled(ctx, r, s)
}

// failingCredits fails every balance increment.
type failingCredits struct {
	repository.UserRepository
}

func (failingCredits) AddCredits(context.Context, *entity.CreditTransaction) (int, error) {
	return 0, errStoreDown
}

type fixture struct {
	store    *memory.Store
	repo     *repository.Repository
	svc      *usecase.Service
	notifier *recordingNotifier

	client      uuid.UUID
	otherClient uuid.UUID
	reader      uuid.UUID
	admin       uuid.UUID
}

func newFixture(t *testing.T, decorate ...func(*repository.Repository)) *fixture {
	t.Helper()

	store := memory.New()
	repo := store.Repository()
	for _, d := range decorate {
		d(repo)
	}

	f := &fixture{
		store:       store,
		repo:        repo,
		notifier:    &recordingNotifier{},
		client:      uuid.New(),
		otherClient: uuid.New(),
		reader:      uuid.New(),
		admin:       uuid.New(),
	}

	store.PutUser(entity.User{Base: entity.Base{ID: f.client}, Role: entity.RoleClient, Credits: 50})
	store.PutUser(entity.User{Base: entity.Base{ID: f.otherClient}, Role: entity.RoleClient, Credits: 50})
	store.PutUser(entity.User{Base: entity.Base{ID: f.reader}, Role: entity.RoleReader})
	store.PutUser(entity.User{Base: entity.Base{ID: f.admin}, Role: entity.RoleAdmin})
	store.PutReader(entity.Reader{
		UserID:      f.reader,
		DisplayName: "Madame Lune",
		Status:      entity.PresenceAvailable,
		Availability: entity.AvailabilityTemplate{
			Schedule: map[string][]entity.TimeWindow{
				"monday": {{Start: "09:00", End: "12:00"}, {Start: "18:00", End: "21:00"}},
			},
			Timezone: "UTC",
		},
	})

	cfg := &utils.Config{Booking: utils.BookingConfig{SlotStepMinutes: 30}}
	f.svc = usecase.NewService(repo, cfg, f.notifier, zap.NewNop())
	return f
}

func (f *fixture) enforceQuotedPrice() {
	cfg := &utils.Config{Booking: utils.BookingConfig{SlotStepMinutes: 30, EnforceQuotedPrice: true}}
	f.svc = usecase.NewService(f.repo, cfg, f.notifier, zap.NewNop())
}

func (f *fixture) as(id uuid.UUID, role entity.UserRole) usecase.Identity {
	return usecase.Identity{UserID: id, Role: role}
}

func (f *fixture) clientID() usecase.Identity { return f.as(f.client, entity.RoleClient) }
func (f *fixture) readerID() usecase.Identity { return f.as(f.reader, entity.RoleReader) }
func (f *fixture) adminID() usecase.Identity  { return f.as(f.admin, entity.RoleAdmin) }

func (f *fixture) balance(t *testing.T, id uuid.UUID) int {
	t.Helper()
	credits, err := f.repo.User.GetCredits(context.Background(), id)
	require.NoError(t, err)
	return credits
}

// seedReading stores a reading for the fixture client and reader directly.
func (f *fixture) seedReading(status entity.ReadingStatus, scheduled *time.Time) uuid.UUID {
	id := uuid.New()
	f.store.PutReading(entity.Reading{
		Base:     entity.Base{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		ClientID: f.client,
		ReaderID: f.reader,
		Topic:    "career",
		ReadingOption: entity.ReadingOption{
			Type:       entity.ReadingTypePhoneCall,
			BasePrice:  20,
			TimeSpan:   entity.TimeSpan{Duration: 30},
			FinalPrice: 20,
		},
		ScheduledDate: scheduled,
		Status:        status,
		Credits:       20,
	})
	return id
}

func bookingRequest(readerID uuid.UUID, readingType entity.ReadingType, price int) *request.CreateReadingRequest {
	return &request.CreateReadingRequest{
		ReaderID: readerID.String(),
		Topic:    "love",
		ReadingOption: request.ReadingOptionRequest{
			Type:      string(readingType),
			BasePrice: price,
			TimeSpan: request.TimeSpanRequest{
				Duration:   30,
				Label:      "30 min",
				Multiplier: decimal.NewFromInt(1),
			},
			FinalPrice: price,
		},
	}
}

// nextMonday returns the first Monday after today at hh:mm UTC.
func nextMonday(hour, minute int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "error: %v", err)
}
