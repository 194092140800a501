// Package memory provides in-memory implementations of the repository
// interfaces, used by tests and by STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lambo313/auralumic-sub001/internal/data/entity"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"

	"github.com/google/uuid"
)

// =============================================================================
// STORE - shared state guarded by one mutex
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*entity.User
	readers   map[uuid.UUID]*entity.Reader
	readings  map[uuid.UUID]*entity.Reading
	scheduled map[uuid.UUID]*entity.ScheduledReading
	journal   []*entity.CreditTransaction
}

func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]*entity.User),
		readers:   make(map[uuid.UUID]*entity.Reader),
		readings:  make(map[uuid.UUID]*entity.Reading),
		scheduled: make(map[uuid.UUID]*entity.ScheduledReading),
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:              &userRepository{s: s},
		Reader:            &readerRepository{s: s},
		Reading:           &readingRepository{s: s},
		ScheduledReading:  &scheduledReadingRepository{s: s},
		CreditTransaction: &creditTransactionRepository{s: s},
	}
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(user entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
	}
	s.users[user.ID] = &user
}

// PutReader inserts or replaces a reader profile.
func (s *Store) PutReader(reader entity.Reader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers[reader.UserID] = &reader
}

// PutReading inserts or replaces a reading without any checks.
func (s *Store) PutReading(reading entity.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[reading.ID] = cloneReading(&reading)
}

// =============================================================================
// USERS / LEDGER
// =============================================================================

type userRepository struct{ s *Store }

func (r *userRepository) GetCredits(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return user.Credits, nil
}

func (r *userRepository) DeductCredits(_ context.Context, entry *entity.CreditTransaction) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[entry.UserID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	if user.Credits < entry.Amount {
		return 0, repository.ErrInsufficientCredits
	}
	user.Credits -= entry.Amount
	r.s.appendJournalLocked(user, entry)
	return user.Credits, nil
}

func (r *userRepository) AddCredits(_ context.Context, entry *entity.CreditTransaction) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[entry.UserID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	user.Credits += entry.Amount
	r.s.appendJournalLocked(user, entry)
	return user.Credits, nil
}

func (s *Store) appendJournalLocked(user *entity.User, entry *entity.CreditTransaction) {
	now := time.Now()
	user.UpdatedAt = now

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = now
	entry.BalanceAfter = user.Credits

	cp := *entry
	s.journal = append(s.journal, &cp)
}

type creditTransactionRepository struct{ s *Store }

func (r *creditTransactionRepository) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.CreditTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]*entity.CreditTransaction, 0)
	// Newest first.
	for i := len(r.s.journal) - 1; i >= 0; i-- {
		if entry := r.s.journal[i]; entry.UserID == userID {
			cp := *entry
			matched = append(matched, &cp)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *creditTransactionRepository) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, entry := range r.s.journal {
		if entry.UserID == userID {
			count++
		}
	}
	return count, nil
}

// =============================================================================
// READERS
// =============================================================================

type readerRepository struct{ s *Store }

func (r *readerRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Reader, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reader, ok := r.s.readers[userID]
	if !ok {
		return nil, nil
	}
	cp := *reader
	return &cp, nil
}

func (r *readerRepository) UpdateStatus(_ context.Context, userID uuid.UUID, status entity.PresenceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reader, ok := r.s.readers[userID]
	if !ok {
		return fmt.Errorf("reader %s not found", userID.String())
	}
	reader.Status = status
	reader.UpdatedAt = time.Now()
	return nil
}

// =============================================================================
// READINGS
// =============================================================================

type readingRepository struct{ s *Store }

func (r *readingRepository) Create(_ context.Context, reading *entity.Reading) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.readings[reading.ID]; exists {
		return fmt.Errorf("reading %s already exists", reading.ID.String())
	}
	r.s.readings[reading.ID] = cloneReading(reading)
	return nil
}

func (r *readingRepository) CreateScheduled(_ context.Context, reading *entity.Reading, slot *entity.ScheduledReading) error {
	start, end, ok := reading.Interval()
	if !ok {
		return fmt.Errorf("create scheduled reading %s: no scheduled date", reading.ID.String())
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.readings {
		if existing.ReaderID == reading.ReaderID && existing.ConflictsWith(start, end) {
			return repository.ErrSlotTaken
		}
	}
	if _, exists := r.s.readings[reading.ID]; exists {
		return fmt.Errorf("reading %s already exists", reading.ID.String())
	}

	r.s.readings[reading.ID] = cloneReading(reading)
	cp := *slot
	r.s.scheduled[slot.ReadingID] = &cp
	return nil
}

func (r *readingRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Reading, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reading, ok := r.s.readings[id]
	if !ok {
		return nil, nil
	}
	return cloneReading(reading), nil
}

func (r *readingRepository) FindByClientID(_ context.Context, clientID uuid.UUID, limit, offset int) ([]*entity.Reading, error) {
	return page(r.s.filterReadings(func(x *entity.Reading) bool { return x.ClientID == clientID }), limit, offset), nil
}

func (r *readingRepository) CountByClientID(_ context.Context, clientID uuid.UUID) (int64, error) {
	return int64(len(r.s.filterReadings(func(x *entity.Reading) bool { return x.ClientID == clientID }))), nil
}

func (r *readingRepository) FindByReaderID(_ context.Context, readerID uuid.UUID, limit, offset int) ([]*entity.Reading, error) {
	return page(r.s.filterReadings(func(x *entity.Reading) bool { return x.ReaderID == readerID }), limit, offset), nil
}

func (r *readingRepository) CountByReaderID(_ context.Context, readerID uuid.UUID) (int64, error) {
	return int64(len(r.s.filterReadings(func(x *entity.Reading) bool { return x.ReaderID == readerID }))), nil
}

func (r *readingRepository) FindConflicting(_ context.Context, readerID uuid.UUID, start, end time.Time) ([]*entity.Reading, error) {
	readings := r.s.filterReadings(func(x *entity.Reading) bool {
		return x.ReaderID == readerID && x.ConflictsWith(start, end)
	})
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].ScheduledDate.Before(*readings[j].ScheduledDate)
	})
	return readings, nil
}

func (r *readingRepository) CountByReaderAndStatus(_ context.Context, readerID uuid.UUID, status entity.ReadingStatus) (int64, error) {
	return int64(len(r.s.filterReadings(func(x *entity.Reading) bool {
		return x.ReaderID == readerID && x.Status == status
	}))), nil
}

func (r *readingRepository) UpdateStatus(_ context.Context, id uuid.UUID, status entity.ReadingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok {
		return fmt.Errorf("reading %s not found", id.String())
	}
	setStatusLocked(reading, status)
	return nil
}

func (r *readingRepository) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.ReadingStatus, to entity.ReadingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok || !slices.Contains(from, reading.Status) {
		return false, nil
	}
	setStatusLocked(reading, to)
	return true, nil
}

func (r *readingRepository) SetReview(_ context.Context, id uuid.UUID, review entity.Review) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok || reading.Status != entity.ReadingStatusArchived {
		return false, nil
	}
	reading.Review = &review
	reading.UpdatedAt = time.Now()
	return true, nil
}

func (r *readingRepository) OpenDispute(_ context.Context, id uuid.UUID, dispute entity.Dispute) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok || reading.Status != entity.ReadingStatusArchived {
		return false, nil
	}
	reading.Dispute = &dispute
	reading.Status = entity.ReadingStatusDisputed
	reading.UpdatedAt = time.Now()
	return true, nil
}

func (r *readingRepository) UpdateDispute(_ context.Context, id uuid.UUID, dispute entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok {
		return fmt.Errorf("reading %s not found", id.String())
	}
	reading.Dispute = &dispute
	reading.UpdatedAt = time.Now()
	return nil
}

func (r *readingRepository) MarkRefunded(_ context.Context, id uuid.UUID) (entity.ReadingStatus, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reading, ok := r.s.readings[id]
	if !ok || reading.Status == entity.ReadingStatusRefunded {
		return "", false, nil
	}
	prior := reading.Status
	setStatusLocked(reading, entity.ReadingStatusRefunded)
	return prior, true, nil
}

type scheduledReadingRepository struct{ s *Store }

func (r *scheduledReadingRepository) FindByReadingID(_ context.Context, readingID uuid.UUID) (*entity.ScheduledReading, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.scheduled[readingID]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// filterReadings returns clones of matching readings, newest first.
func (s *Store) filterReadings(match func(*entity.Reading) bool) []*entity.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Reading, 0)
	for _, reading := range s.readings {
		if match(reading) {
			out = append(out, cloneReading(reading))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func setStatusLocked(reading *entity.Reading, status entity.ReadingStatus) {
	now := time.Now()
	reading.Status = status
	reading.UpdatedAt = now
	if status == entity.ReadingStatusArchived || status == entity.ReadingStatusCompleted {
		reading.CompletedDate = &now
	}
}

func cloneReading(r *entity.Reading) *entity.Reading {
	cp := *r
	if r.Question != nil {
		q := *r.Question
		cp.Question = &q
	}
	if r.ScheduledDate != nil {
		d := *r.ScheduledDate
		cp.ScheduledDate = &d
	}
	if r.Review != nil {
		rv := *r.Review
		cp.Review = &rv
	}
	if r.Dispute != nil {
		d := *r.Dispute
		cp.Dispute = &d
	}
	if r.CompletedDate != nil {
		c := *r.CompletedDate
		cp.CompletedDate = &c
	}
	return &cp
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
