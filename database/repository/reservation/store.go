// File: database/repository/reservation/store.go
package reservationRepo

import (
	"context"

	"courtly/models"
)

// ReservationTx exposes the record operations available inside one atomic
// reservation transaction. Implementations guarantee that either every write
// issued through the tx commits, or none do.
type ReservationTx interface {
	// GetHold re-reads a hold inside the transaction. Returns
	// models.ErrHoldNotFound when no document exists.
	GetHold(ctx context.Context, reference string) (*models.TemporaryHold, error)

	// SlotFinalizedElsewhere reports whether any other hold for the slot has
	// already produced a booking.
	SlotFinalizedElsewhere(ctx context.Context, slotKey, excludeReference string) (bool, error)

	// InsertBooking creates the confirmed booking record, assigning its
	// identity if unset.
	InsertBooking(ctx context.Context, booking *models.ConfirmedBooking) error

	// MarkHoldFinalized flips the finalization bookkeeping on a paid,
	// not-yet-finalized hold. Returns models.ErrConflict when the
	// precondition no longer matches.
	MarkHoldFinalized(ctx context.Context, reference, bookingID string) error

	// CancelRacingSiblings transitions every other hold still contending for
	// the slot to cancelled_by_sibling and returns how many were cancelled.
	// Holds that already lost by other means are left untouched.
	CancelRacingSiblings(ctx context.Context, slotKey, winnerReference, reason string) (int64, error)
}

// ReservationStore provides serializable, all-or-nothing execution of a
// closure that reads and writes holds and bookings. A conflicting concurrent
// transaction surfaces as models.ErrTransactionConflict, which the caller may
// retry.
type ReservationStore interface {
	RunTransaction(ctx context.Context, fn func(txCtx context.Context, tx ReservationTx) error) error
}
