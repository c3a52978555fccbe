package models

import "errors"

// Store-level errors shared by the repositories and the reconciliation
// services.
var (
	// ErrHoldNotFound signals that no hold exists for a reference. On the
	// webhook path this is benign: delivery may outlive the hold's
	// retention window.
	ErrHoldNotFound = errors.New("temporary hold not found")

	// ErrBookingNotFound signals that no confirmed booking exists for an id
	// or reference.
	ErrBookingNotFound = errors.New("confirmed booking not found")

	// ErrConflict signals that a precondition-guarded update matched no
	// document, i.e. a concurrent writer got there first.
	ErrConflict = errors.New("conditional update precondition failed")

	// ErrTransactionConflict signals an aborted multi-document transaction;
	// the caller may retry the whole transaction.
	ErrTransactionConflict = errors.New("transaction aborted on conflict")

	// ErrSlotAlreadyBooked signals that a booking for the slot already exists.
	// Raised either by the pre-insert ownership check or by the unique slotKey
	// index on the bookings collection, which backstops that check against
	// concurrent snapshot-isolated transactions whose reads cannot see each
	// other.
	ErrSlotAlreadyBooked = errors.New("slot already finalized by a sibling hold")
)
