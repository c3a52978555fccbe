package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationRepo "courtly/database/repository/reservation"
	"courtly/models"
)

// fakeHoldRepo is an in-memory HoldRepository mirroring the precondition
// semantics of the Mongo implementation.
type fakeHoldRepo struct {
	mu    sync.Mutex
	holds map[string]*models.TemporaryHold
}

func newFakeHoldRepo(holds ...*models.TemporaryHold) *fakeHoldRepo {
	repo := &fakeHoldRepo{holds: make(map[string]*models.TemporaryHold)}
	for _, h := range holds {
		copied := *h
		repo.holds[h.Reference] = &copied
	}
	return repo
}

func (f *fakeHoldRepo) Create(ctx context.Context, hold *models.TemporaryHold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.holds[hold.Reference]; ok {
		return models.ErrConflict
	}
	copied := *hold
	f.holds[hold.Reference] = &copied
	return nil
}

func (f *fakeHoldRepo) GetByReference(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[reference]
	if !ok {
		return nil, models.ErrHoldNotFound
	}
	copied := *hold
	return &copied, nil
}

func statusIn(status models.HoldStatus, set []models.HoldStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func (f *fakeHoldRepo) transition(reference string, from []models.HoldStatus, mutate func(*models.TemporaryHold)) (*models.TemporaryHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[reference]
	if !ok {
		return nil, models.ErrHoldNotFound
	}
	if !statusIn(hold.Status, from) {
		return nil, models.ErrConflict
	}
	mutate(hold)
	hold.UpdatedAt = time.Now()
	copied := *hold
	return &copied, nil
}

func (f *fakeHoldRepo) MarkPaid(ctx context.Context, reference, transactionID, paymentMethod string, amountPaid float64) (*models.TemporaryHold, error) {
	from := []models.HoldStatus{models.HoldStatusLocked, models.HoldStatusPending, models.HoldStatusExpired}
	return f.transition(reference, from, func(h *models.TemporaryHold) {
		now := time.Now()
		h.Status = models.HoldStatusPaid
		h.TransactionID = transactionID
		h.PaymentMethod = paymentMethod
		h.Amount = amountPaid
		h.WebhookReceived = true
		h.PaidAt = &now
	})
}

func (f *fakeHoldRepo) MarkRejected(ctx context.Context, reference, reason string) (*models.TemporaryHold, error) {
	return f.transition(reference, models.RacingStatuses, func(h *models.TemporaryHold) {
		h.Status = models.HoldStatusRejected
		h.StatusMessage = reason
		h.WebhookReceived = true
	})
}

func (f *fakeHoldRepo) MarkVoided(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	return f.transition(reference, models.RacingStatuses, func(h *models.TemporaryHold) {
		h.Status = models.HoldStatusVoided
		h.WebhookReceived = true
	})
}

func (f *fakeHoldRepo) FindRacingBySlotKey(ctx context.Context, slotKey, excludeReference string) ([]models.TemporaryHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TemporaryHold
	for _, h := range f.holds {
		if h.SlotKey == slotKey && h.Reference != excludeReference && h.IsRacing() {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeHoldRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired int64
	for _, h := range f.holds {
		if h.IsRacing() && h.ExpiresAt.Before(now) {
			h.Status = models.HoldStatusExpired
			at := now
			h.ExpiredAt = &at
			h.UpdatedAt = now
			expired++
		}
	}
	return expired, nil
}

func (f *fakeHoldRepo) EnsureIndexes() error { return nil }

// memStore is an in-memory ReservationStore sharing state with a
// fakeHoldRepo. Like Mongo transactions, each transaction reads only its own
// snapshot and buffers its writes until commit, so two transactions cannot
// observe each other mid-flight. A unique slotKey check on booking inserts
// mirrors the unique index on the bookings collection. conflictsLeft injects
// transaction conflicts for retry tests; interleave, when set, runs once
// between a transaction's snapshot and its body, to wedge a competing
// transaction inside the read phase.
type memStore struct {
	mu            sync.Mutex
	repo          *fakeHoldRepo
	bookings      []*models.ConfirmedBooking
	conflictsLeft int
	interleave    func()
}

func newMemStore(repo *fakeHoldRepo) *memStore {
	return &memStore{repo: repo}
}

func (s *memStore) RunTransaction(ctx context.Context, fn func(txCtx context.Context, tx reservationRepo.ReservationTx) error) error {
	s.mu.Lock()
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		s.mu.Unlock()
		return fmt.Errorf("reservation transaction: %w", models.ErrTransactionConflict)
	}
	tx := &memTx{store: s, holds: make(map[string]*models.TemporaryHold), dirty: make(map[string]bool)}
	s.repo.mu.Lock()
	for ref, h := range s.repo.holds {
		copied := *h
		tx.holds[ref] = &copied
	}
	s.repo.mu.Unlock()
	hook := s.interleave
	s.interleave = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	if err := fn(ctx, tx); err != nil {
		// Buffered writes are discarded; nothing to roll back.
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("reservation transaction: %w", models.ErrTransactionConflict)
		}
		return err
	}
	return tx.commit()
}

func (s *memStore) bookingsForSlot(slotKey string) []*models.ConfirmedBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ConfirmedBooking
	for _, b := range s.bookings {
		if b.SlotKey == slotKey {
			out = append(out, b)
		}
	}
	return out
}

func (s *memStore) hasBookingForSlot(slotKey string) bool {
	for _, b := range s.bookings {
		if b.SlotKey == slotKey {
			return true
		}
	}
	return false
}

// memTx reads from its private snapshot and buffers writes until commit.
type memTx struct {
	store    *memStore
	holds    map[string]*models.TemporaryHold
	dirty    map[string]bool
	inserted []*models.ConfirmedBooking
}

func (t *memTx) GetHold(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	hold, ok := t.holds[reference]
	if !ok {
		return nil, models.ErrHoldNotFound
	}
	copied := *hold
	return &copied, nil
}

func (t *memTx) SlotFinalizedElsewhere(ctx context.Context, slotKey, excludeReference string) (bool, error) {
	for _, h := range t.holds {
		if h.SlotKey == slotKey && h.Reference != excludeReference && h.Finalized {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertBooking(ctx context.Context, booking *models.ConfirmedBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	// Unique slotKey index: committed bookings conflict even when this
	// transaction's snapshot never saw them.
	t.store.mu.Lock()
	taken := t.store.hasBookingForSlot(booking.SlotKey)
	t.store.mu.Unlock()
	if taken {
		return fmt.Errorf("booking for slot %s: %w", booking.SlotKey, models.ErrSlotAlreadyBooked)
	}
	for _, b := range t.inserted {
		if b.SlotKey == booking.SlotKey {
			return fmt.Errorf("booking for slot %s: %w", booking.SlotKey, models.ErrSlotAlreadyBooked)
		}
	}
	t.inserted = append(t.inserted, booking)
	return nil
}

func (t *memTx) MarkHoldFinalized(ctx context.Context, reference, bookingID string) error {
	hold, ok := t.holds[reference]
	if !ok || hold.Status != models.HoldStatusPaid || hold.Finalized {
		return models.ErrConflict
	}
	hold.Finalized = true
	hold.FinalBookingID = bookingID
	t.dirty[reference] = true
	return nil
}

func (t *memTx) CancelRacingSiblings(ctx context.Context, slotKey, winnerReference, reason string) (int64, error) {
	var cancelled int64
	now := time.Now()
	for ref, h := range t.holds {
		if h.SlotKey == slotKey && h.Reference != winnerReference && h.IsRacing() {
			h.Status = models.HoldStatusCancelledBySibling
			h.CancelReason = reason
			h.CancelledAt = &now
			t.dirty[ref] = true
			cancelled++
		}
	}
	return cancelled, nil
}

func (t *memTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, b := range t.inserted {
		if t.store.hasBookingForSlot(b.SlotKey) {
			return fmt.Errorf("booking for slot %s: %w", b.SlotKey, models.ErrSlotAlreadyBooked)
		}
	}
	t.store.repo.mu.Lock()
	for ref := range t.dirty {
		copied := *t.holds[ref]
		t.store.repo.holds[ref] = &copied
	}
	t.store.repo.mu.Unlock()
	t.store.bookings = append(t.store.bookings, t.inserted...)
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func pendingHold(reference, slotKey string, amount, totalPrice float64, expiresAt time.Time) *models.TemporaryHold {
	return &models.TemporaryHold{
		Reference:  reference,
		SlotKey:    slotKey,
		Status:     models.HoldStatusPending,
		ExpiresAt:  expiresAt,
		Client:     models.ClientInfo{Name: "Ana Gomez", Email: "ana@example.com", Phone: "3001112233"},
		Amount:     amount,
		TotalPrice: totalPrice,
		CreatedAt:  time.Now(),
	}
}
