package reconcile

import (
	"errors"

	"courtly/models"
)

var (
	// ErrInvalidEvent signals a malformed inbound payment event (missing
	// reference). Rejected without mutation.
	ErrInvalidEvent = errors.New("invalid payment event")

	// ErrSlotAlreadyBooked signals that a paid hold cannot finalize because a
	// sibling already owns the slot. Requires manual adjudication; never
	// resolved by creating a second booking. Shared with the store layer,
	// which raises it when the unique booking index rejects an insert.
	ErrSlotAlreadyBooked = models.ErrSlotAlreadyBooked

	// ErrRetryBudgetExhausted signals that the finalization transaction kept
	// colliding past its retry budget.
	ErrRetryBudgetExhausted = errors.New("finalization retry budget exhausted")
)
