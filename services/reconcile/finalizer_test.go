package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtly/models"
)

const slotA = "courtA|2024-05-01|10:00"

func paidHold(reference, slotKey string, amount, totalPrice float64) *models.TemporaryHold {
	h := pendingHold(reference, slotKey, amount, totalPrice, time.Now().Add(time.Minute))
	now := time.Now()
	h.Status = models.HoldStatusPaid
	h.WebhookReceived = true
	h.PaidAt = &now
	h.PaymentMethod = "CARD"
	h.TransactionID = "txn-" + reference
	return h
}

func newFinalizer(store *memStore) *FinalizationCoordinator {
	return &FinalizationCoordinator{Store: store, Logger: testLogger(), MaxAttempts: 3}
}

func TestShouldFinalize(t *testing.T) {
	paid := paidHold("R1", slotA, 80000, 80000)

	pending := pendingHold("R1", slotA, 80000, 80000, time.Now().Add(time.Minute))

	alreadyPaid := paidHold("R1", slotA, 80000, 80000)

	finalized := paidHold("R1", slotA, 80000, 80000)
	finalized.Finalized = true

	unconfirmed := paidHold("R1", slotA, 80000, 80000)
	unconfirmed.WebhookReceived = false

	cases := []struct {
		name   string
		before *models.TemporaryHold
		after  *models.TemporaryHold
		want   bool
	}{
		{"pending to paid", pending, paid, true},
		{"no before snapshot", nil, paid, true},
		{"already paid", alreadyPaid, paid, false},
		{"still pending", pending, pending, false},
		{"already finalized", pending, finalized, false},
		{"paid without webhook", pending, unconfirmed, false},
		{"nil after", pending, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shouldFinalize(tc.before, tc.after))
		})
	}
}

func TestFinalizeCreatesBookingAndCancelsSiblings(t *testing.T) {
	winner := paidHold("R1", slotA, 80000, 80000)
	sibling := pendingHold("R2", slotA, 80000, 80000, time.Now().Add(time.Minute))
	loser := pendingHold("R3", slotA, 80000, 80000, time.Now().Add(time.Minute))
	loser.Status = models.HoldStatusRejected
	other := pendingHold("R4", "courtB|2024-05-01|10:00", 60000, 60000, time.Now().Add(time.Minute))

	repo := newFakeHoldRepo(winner, sibling, loser, other)
	store := newMemStore(repo)

	err := newFinalizer(store).Finalize(context.Background(), "R1")
	require.NoError(t, err)

	bookings := store.bookingsForSlot(slotA)
	require.Len(t, bookings, 1)
	booking := bookings[0]
	assert.Equal(t, "courtA", booking.Court)
	assert.Equal(t, "2024-05-01", booking.Date)
	assert.Equal(t, "10:00", booking.StartTime)
	assert.Equal(t, "R1", booking.Reference)
	assert.Equal(t, models.AbonoCompleto, booking.TipoAbono)
	assert.Equal(t, 80000.0, booking.AmountPaid)
	assert.Equal(t, "Ana Gomez", booking.Client.Name)

	finalized, err := repo.GetByReference(context.Background(), "R1")
	require.NoError(t, err)
	assert.True(t, finalized.Finalized)
	assert.Equal(t, booking.ID, finalized.FinalBookingID)

	cancelled, err := repo.GetByReference(context.Background(), "R2")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusCancelledBySibling, cancelled.Status)
	assert.NotEmpty(t, cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// Holds that already lost by other means are left untouched.
	rejected, err := repo.GetByReference(context.Background(), "R3")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusRejected, rejected.Status)

	// Holds for other slots are not siblings.
	unrelated, err := repo.GetByReference(context.Background(), "R4")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusPending, unrelated.Status)
}

func TestFinalizePartialAbono(t *testing.T) {
	repo := newFakeHoldRepo(paidHold("R1", slotA, 40000, 80000))
	store := newMemStore(repo)

	require.NoError(t, newFinalizer(store).Finalize(context.Background(), "R1"))

	bookings := store.bookingsForSlot(slotA)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.AbonoParcial, bookings[0].TipoAbono)
	assert.Equal(t, 40000.0, bookings[0].AmountPaid)
	assert.Equal(t, 80000.0, bookings[0].TotalPrice)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := newFakeHoldRepo(paidHold("R1", slotA, 80000, 80000))
	store := newMemStore(repo)
	finalizer := newFinalizer(store)

	require.NoError(t, finalizer.Finalize(context.Background(), "R1"))
	// A second trigger finds the guard no longer holding and no-ops.
	require.NoError(t, finalizer.Finalize(context.Background(), "R1"))

	assert.Len(t, store.bookingsForSlot(slotA), 1)
}

func TestFinalizeGuardSkipsUnpaidHold(t *testing.T) {
	repo := newFakeHoldRepo(pendingHold("R1", slotA, 80000, 80000, time.Now().Add(time.Minute)))
	store := newMemStore(repo)

	require.NoError(t, newFinalizer(store).Finalize(context.Background(), "R1"))
	assert.Empty(t, store.bookingsForSlot(slotA))
}

func TestFinalizeMissingHoldIsNoop(t *testing.T) {
	store := newMemStore(newFakeHoldRepo())
	require.NoError(t, newFinalizer(store).Finalize(context.Background(), "ghost"))
}

func TestFinalizeRetriesOnTransactionConflict(t *testing.T) {
	repo := newFakeHoldRepo(paidHold("R1", slotA, 80000, 80000))
	store := newMemStore(repo)
	store.conflictsLeft = 2

	require.NoError(t, newFinalizer(store).Finalize(context.Background(), "R1"))
	assert.Len(t, store.bookingsForSlot(slotA), 1)
}

func TestFinalizeExhaustsRetryBudget(t *testing.T) {
	repo := newFakeHoldRepo(paidHold("R1", slotA, 80000, 80000))
	store := newMemStore(repo)
	store.conflictsLeft = 10

	err := newFinalizer(store).Finalize(context.Background(), "R1")
	assert.ErrorIs(t, err, ErrRetryBudgetExhausted)
	assert.Empty(t, store.bookingsForSlot(slotA))
}

func TestAtMostOneBookingPerSlot(t *testing.T) {
	// Both holds paid before either finalized: a provider double-approval.
	repo := newFakeHoldRepo(paidHold("R1", slotA, 80000, 80000), paidHold("R2", slotA, 80000, 80000))
	store := newMemStore(repo)
	finalizer := newFinalizer(store)

	require.NoError(t, finalizer.Finalize(context.Background(), "R1"))

	// The second paid hold must not produce a second booking; it surfaces as
	// a reconciliation failure for manual adjudication.
	err := finalizer.Finalize(context.Background(), "R2")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)

	require.Len(t, store.bookingsForSlot(slotA), 1)
	assert.Equal(t, "R1", store.bookingsForSlot(slotA)[0].Reference)

	second, err := repo.GetByReference(context.Background(), "R2")
	require.NoError(t, err)
	assert.False(t, second.Finalized)
}

func TestConcurrentFinalizationsCannotDoubleBook(t *testing.T) {
	// Two double-approved siblings finalize concurrently. Each transaction's
	// snapshot reads the slot as free (neither sees the other's writes), so
	// the ownership pre-check passes in both; only the unique booking index
	// can reject the second insert.
	repo := newFakeHoldRepo(paidHold("R1", slotA, 80000, 80000), paidHold("R2", slotA, 80000, 80000))
	store := newMemStore(repo)
	finalizer := newFinalizer(store)

	// R2's full transaction commits inside R1's read phase.
	store.interleave = func() {
		require.NoError(t, finalizer.Finalize(context.Background(), "R2"))
	}

	err := finalizer.Finalize(context.Background(), "R1")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)

	bookings := store.bookingsForSlot(slotA)
	require.Len(t, bookings, 1)
	assert.Equal(t, "R2", bookings[0].Reference)

	// The loser's hold stays paid and unfinalized for manual adjudication.
	loser, err := repo.GetByReference(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusPaid, loser.Status)
	assert.False(t, loser.Finalized)
}

func TestPaymentRaceEndToEnd(t *testing.T) {
	// R1 and R2 race for the same slot; R1's webhook lands first.
	r1 := pendingHold("R1", slotA, 80000, 80000, time.Now().Add(time.Minute))
	r2 := pendingHold("R2", slotA, 80000, 80000, time.Now().Add(time.Minute))
	repo := newFakeHoldRepo(r1, r2)
	store := newMemStore(repo)
	finalizer := newFinalizer(store)
	processor := &PaymentProcessor{Holds: repo, Notifier: finalizer, Logger: testLogger()}

	require.NoError(t, processor.Process(context.Background(), approvedEvent("R1", 8000000)))

	// R1 finalized, R2 cancelled in the same transaction.
	require.Len(t, store.bookingsForSlot(slotA), 1)
	r2After, err := repo.GetByReference(context.Background(), "R2")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusCancelledBySibling, r2After.Status)

	// A late approval for the cancelled sibling applies no mutation and does
	// not error, so the provider stops retrying.
	require.NoError(t, processor.Process(context.Background(), approvedEvent("R2", 8000000)))
	require.Len(t, store.bookingsForSlot(slotA), 1)
	r2Final, err := repo.GetByReference(context.Background(), "R2")
	require.NoError(t, err)
	assert.Equal(t, models.HoldStatusCancelledBySibling, r2Final.Status)
}
