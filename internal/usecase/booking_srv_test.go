package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/dto/request"
	"github.com/lambo313/auralumic-sub001/internal/usecase"
	"github.com/lambo313/auralumic-sub001/pkg/apperror"
	"github.com/lambo313/auralumic-sub001/pkg/notify"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	suggested := entity.ReadingStatusSuggested

	tests := []struct {
		name        string
		explicit    *entity.ReadingStatus
		scheduled   bool
		readingType entity.ReadingType
		want        entity.ReadingStatus
	}{
		{name: "explicit wins over date", explicit: &suggested, scheduled: true, readingType: entity.ReadingTypePhoneCall, want: entity.ReadingStatusSuggested},
		{name: "scheduled date", scheduled: true, readingType: entity.ReadingTypeVideoMessage, want: entity.ReadingStatusScheduled},
		{name: "video message", readingType: entity.ReadingTypeVideoMessage, want: entity.ReadingStatusMessageQueue},
		{name: "phone call", readingType: entity.ReadingTypePhoneCall, want: entity.ReadingStatusInstantQueue},
		{name: "live video", readingType: entity.ReadingTypeLiveVideo, want: entity.ReadingStatusInstantQueue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.InitialStatus(tt.explicit, tt.scheduled, tt.readingType))
		})
	}
}

func TestBooking_MessageQueue(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(),
		bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 30))
	require.NoError(t, err)

	assert.Equal(t, entity.ReadingStatusMessageQueue, got.Reading.Status)
	assert.Equal(t, 30, got.Reading.Credits)
	assert.Equal(t, 20, got.CreditBalance)
	assert.Equal(t, 20, f.balance(t, f.client))

	stored, err := f.repo.Reading.FindByID(context.Background(), uuid.MustParse(got.Reading.ID))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, f.client, stored.ClientID)
	assert.Equal(t, f.reader, stored.ReaderID)

	sent := f.notifier.ofType(notify.TypeReadingRequested)
	require.Len(t, sent, 1)
	assert.Equal(t, f.reader, sent[0].UserID)

	journal, err := f.repo.CreditTransaction.FindByUserID(context.Background(), f.client, 10, 0)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, entity.CreditTxDebit, journal[0].Type)
	require.NotNil(t, journal[0].ReadingID)
	assert.Equal(t, got.Reading.ID, journal[0].ReadingID.String())
}

func TestBooking_Scheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := nextMonday(10, 0)
	req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
	req.ScheduledDate = &start
	tz := "Europe/London"
	req.TimeZone = &tz

	got, err := f.svc.Booking.CreateBooking(ctx, f.clientID(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.ReadingStatusScheduled, got.Reading.Status)
	assert.Equal(t, tz, got.Reading.TimeZone)
	assert.Equal(t, 30, got.CreditBalance)

	slot, err := f.repo.ScheduledReading.FindByReadingID(ctx, uuid.MustParse(got.Reading.ID))
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.True(t, start.Equal(slot.ScheduledDate))
	assert.Equal(t, tz, slot.TimeZone)

	// The same slot is now taken for everyone.
	again := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
	overlapping := nextMonday(10, 15)
	again.ScheduledDate = &overlapping
	_, err = f.svc.Booking.CreateBooking(ctx, f.as(f.otherClient, entity.RoleClient), again)
	requireKind(t, err, apperror.KindSlotUnavailable)
	assert.Equal(t, 50, f.balance(t, f.otherClient))
}

func TestBooking_OutsideWorkingHours(t *testing.T) {
	f := newFixture(t)

	start := nextMonday(14, 0)
	req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
	req.ScheduledDate = &start

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(), req)
	requireKind(t, err, apperror.KindSlotUnavailable)
	assert.Equal(t, 50, f.balance(t, f.client))
	assert.Empty(t, f.notifier.ofType(notify.TypeReadingRequested))
}

func TestBooking_InsufficientFunds(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(),
		bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 60))
	requireKind(t, err, apperror.KindInsufficientFunds)

	assert.Equal(t, 50, f.balance(t, f.client))
	count, err := f.repo.Reading.CountByClientID(context.Background(), f.client)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBooking_ExplicitStatus(t *testing.T) {
	f := newFixture(t)

	start := nextMonday(10, 0)
	req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
	req.ScheduledDate = &start
	status := string(entity.ReadingStatusSuggested)
	req.Status = &status

	got, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.ReadingStatusSuggested, got.Reading.Status)

	// Only scheduled readings get a calendar row.
	slot, err := f.repo.ScheduledReading.FindByReadingID(context.Background(), uuid.MustParse(got.Reading.ID))
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestBooking_Validation(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	inProgress := string(entity.ReadingStatusInProgress)
	scheduled := string(entity.ReadingStatusScheduled)
	bogus := "pending"

	tests := []struct {
		name   string
		mutate func(f *fixture, req *request.CreateReadingRequest)
		field  string
	}{
		{
			name: "negative multiplier",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) {
				req.ReadingOption.TimeSpan.Multiplier = decimal.NewFromInt(-1)
			},
			field: "multiplier",
		},
		{
			name:   "scheduled in the past",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.ScheduledDate = &past },
			field:  "scheduledDate",
		},
		{
			name:   "non-initial status",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.Status = &inProgress },
			field:  "status",
		},
		{
			name:   "unknown status",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.Status = &bogus },
			field:  "status",
		},
		{
			name:   "scheduled status without date",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.Status = &scheduled },
			field:  "scheduledDate",
		},
		{
			name:   "booking yourself",
			mutate: func(f *fixture, req *request.CreateReadingRequest) { req.ReaderID = f.client.String() },
			field:  "readerId",
		},
		{
			name:   "missing topic",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.Topic = "" },
			field:  "topic",
		},
		{
			name:   "zero duration",
			mutate: func(_ *fixture, req *request.CreateReadingRequest) { req.ReadingOption.TimeSpan.Duration = 0 },
			field:  "duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
			tt.mutate(f, req)

			_, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(), req)
			requireKind(t, err, apperror.KindValidation)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Details, tt.field)
			assert.Equal(t, 50, f.balance(t, f.client))
		})
	}
}

func TestBooking_MultiplierQuote(t *testing.T) {
	f := newFixture(t)

	req := bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 20)
	req.ReadingOption.TimeSpan.Multiplier = decimal.RequireFromString("1.5")
	req.ReadingOption.FinalPrice = 30

	got, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(), req)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Reading.Credits)
}

func TestBooking_QuotedPricePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("discounted option is charged its final price", func(t *testing.T) {
		f := newFixture(t)
		req := bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 20)
		req.ReadingOption.FinalPrice = 15

		got, err := f.svc.Booking.CreateBooking(ctx, f.clientID(), req)
		require.NoError(t, err)
		assert.Equal(t, 15, got.Reading.Credits)
		assert.Equal(t, 35, f.balance(t, f.client))
	})

	t.Run("enforced quote rejects a mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.enforceQuotedPrice()
		req := bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 20)
		req.ReadingOption.FinalPrice = 15

		_, err := f.svc.Booking.CreateBooking(ctx, f.clientID(), req)
		requireKind(t, err, apperror.KindValidation)
		appErr, _ := apperror.As(err)
		assert.Contains(t, appErr.Details, "finalPrice")
		assert.Equal(t, 50, f.balance(t, f.client))
	})

	t.Run("enforced quote accepts a matching price", func(t *testing.T) {
		f := newFixture(t)
		f.enforceQuotedPrice()
		req := bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 20)
		req.ReadingOption.TimeSpan.Multiplier = decimal.RequireFromString("1.25")
		req.ReadingOption.FinalPrice = 25

		_, err := f.svc.Booking.CreateBooking(ctx, f.clientID(), req)
		require.NoError(t, err)
	})
}

func TestBooking_CallerAndReader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Booking.CreateBooking(ctx, usecase.Identity{},
		bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 30))
	requireKind(t, err, apperror.KindUnauthorized)

	_, err = f.svc.Booking.CreateBooking(ctx, f.clientID(),
		bookingRequest(uuid.New(), entity.ReadingTypeVideoMessage, 30))
	requireKind(t, err, apperror.KindNotFound)

	assert.Equal(t, 50, f.balance(t, f.client))
}

func TestBooking_CompensatesWhenPersistFails(t *testing.T) {
	f := newFixture(t, func(repo *repository.Repository) {
		repo.Reading = &failingReadings{ReadingRepository: repo.Reading, createErr: errStoreDown}
	})
	ctx := context.Background()

	_, err := f.svc.Booking.CreateBooking(ctx, f.clientID(),
		bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 30))
	requireKind(t, err, apperror.KindInternal)
	assert.True(t, errors.Is(err, errStoreDown))

	assert.Equal(t, 50, f.balance(t, f.client))

	journal, err := f.repo.CreditTransaction.FindByUserID(ctx, f.client, 10, 0)
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, entity.CreditTxRefund, journal[0].Type)
	assert.Equal(t, 30, journal[0].Amount)
	assert.Equal(t, entity.CreditTxDebit, journal[1].Type)

	assert.Empty(t, f.notifier.ofType(notify.TypeReadingRequested))
}

func TestBooking_LateSlotConflict(t *testing.T) {
	f := newFixture(t, func(repo *repository.Repository) {
		repo.Reading = &failingReadings{ReadingRepository: repo.Reading, scheduledErr: repository.ErrSlotTaken}
	})

	start := nextMonday(10, 0)
	req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
	req.ScheduledDate = &start

	_, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(), req)
	requireKind(t, err, apperror.KindSlotUnavailable)
	assert.Equal(t, 50, f.balance(t, f.client))
}

func TestBooking_CompensatesWhenNotifyFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker unreachable")
	ctx := context.Background()

	_, err := f.svc.Booking.CreateBooking(ctx, f.clientID(),
		bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 30))
	requireKind(t, err, apperror.KindInternal)

	assert.Equal(t, 50, f.balance(t, f.client))

	readings, err := f.repo.Reading.FindByClientID(ctx, f.client, 10, 0)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, entity.ReadingStatusRefunded, readings[0].Status)
}

func TestBooking_ConcurrentSpendIsBounded(t *testing.T) {
	f := newFixture(t)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Booking.CreateBooking(context.Background(), f.clientID(),
				bookingRequest(f.reader, entity.ReadingTypeVideoMessage, 30))
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperror.IsKind(err, apperror.KindInsufficientFunds):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), rejected.Load())
	assert.Equal(t, 20, f.balance(t, f.client))
}

func TestBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	clients := make([]uuid.UUID, 8)
	for i := range clients {
		clients[i] = uuid.New()
		f.store.PutUser(entity.User{Base: entity.Base{ID: clients[i]}, Role: entity.RoleClient, Credits: 100})
	}

	start := nextMonday(19, 0)
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for _, id := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := bookingRequest(f.reader, entity.ReadingTypePhoneCall, 20)
			req.ScheduledDate = &start
			if _, err := f.svc.Booking.CreateBooking(context.Background(), f.as(id, entity.RoleClient), req); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())

	total := 0
	for _, id := range clients {
		total += f.balance(t, id)
	}
	assert.Equal(t, 8*100-20, total, "losers must be refunded")
}
