package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	reservationRepo "courtly/database/repository/reservation"
	"courtly/models"
)

// FinalizationCoordinator promotes a paid hold into a confirmed booking. The
// promotion, the hold's finalization bookkeeping and the cancellation of
// sibling holds run inside one store transaction: a partial application would
// let a retry create a duplicate booking for the slot.
type FinalizationCoordinator struct {
	Store       reservationRepo.ReservationStore
	Logger      *zap.Logger
	MaxAttempts int
}

const defaultMaxAttempts = 3

// shouldFinalize is the edge-trigger guard: the hold just became paid through
// a confirmed webhook and has not produced a booking yet.
func shouldFinalize(before, after *models.TemporaryHold) bool {
	if after == nil {
		return false
	}
	if before != nil && before.Status == models.HoldStatusPaid {
		return false
	}
	return after.Status == models.HoldStatusPaid && after.WebhookReceived && !after.Finalized
}

// HandleHoldChange inspects one before/after snapshot pair and finalizes the
// hold when the edge-trigger guard matches. Safe under at-least-once
// triggering.
func (fc *FinalizationCoordinator) HandleHoldChange(ctx context.Context, before, after *models.TemporaryHold) error {
	if !shouldFinalize(before, after) {
		return nil
	}
	return fc.Finalize(ctx, after.Reference)
}

// Finalize runs the atomic finalization transaction for a hold, retrying on
// store conflicts up to the configured budget. Exhausting the budget, or
// finding the slot already owned by a sibling, is reported for manual
// follow-up rather than silently dropped.
func (fc *FinalizationCoordinator) Finalize(ctx context.Context, reference string) error {
	maxAttempts := fc.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fc.Store.RunTransaction(ctx, func(txCtx context.Context, tx reservationRepo.ReservationTx) error {
			return fc.finalizeTx(txCtx, tx, reference)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, models.ErrTransactionConflict) {
			lastErr = err
			fc.Logger.Warn("finalization transaction conflicted, retrying",
				zap.String("reference", reference),
				zap.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, ErrSlotAlreadyBooked) {
			// A sibling paid and won first. Creating a second booking would
			// double-book the slot, so this surfaces for manual adjudication.
			fc.Logger.Error("reconciliation failure: paid hold lost its slot",
				zap.String("reference", reference), zap.Error(err))
			return err
		}
		return err
	}

	fc.Logger.Error("reconciliation failure: finalization retries exhausted",
		zap.String("reference", reference),
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr))
	return fmt.Errorf("finalize hold %s: %w", reference, ErrRetryBudgetExhausted)
}

func (fc *FinalizationCoordinator) finalizeTx(ctx context.Context, tx reservationRepo.ReservationTx, reference string) error {
	hold, err := tx.GetHold(ctx, reference)
	if errors.Is(err, models.ErrHoldNotFound) {
		fc.Logger.Info("hold disappeared before finalization", zap.String("reference", reference))
		return nil
	}
	if err != nil {
		return err
	}

	// Re-check the guard inside the transaction; a concurrent execution may
	// already have finalized, or the status may have moved again.
	if hold.Status != models.HoldStatusPaid || !hold.WebhookReceived || hold.Finalized {
		fc.Logger.Debug("finalization guard no longer holds, skipping",
			zap.String("reference", reference),
			zap.String("status", string(hold.Status)),
			zap.Bool("finalized", hold.Finalized))
		return nil
	}

	taken, err := tx.SlotFinalizedElsewhere(ctx, hold.SlotKey, hold.Reference)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("hold %s, slot %s: %w", hold.Reference, hold.SlotKey, ErrSlotAlreadyBooked)
	}

	booking, err := buildBooking(hold)
	if err != nil {
		return err
	}
	if err := tx.InsertBooking(ctx, booking); err != nil {
		return err
	}
	if err := tx.MarkHoldFinalized(ctx, hold.Reference, booking.ID); err != nil {
		return err
	}

	reason := fmt.Sprintf("slot taken by reservation %s", hold.Reference)
	cancelled, err := tx.CancelRacingSiblings(ctx, hold.SlotKey, hold.Reference, reason)
	if err != nil {
		return err
	}

	fc.Logger.Info("hold finalized into booking",
		zap.String("reference", hold.Reference),
		zap.String("bookingId", booking.ID),
		zap.String("slotKey", hold.SlotKey),
		zap.Int64("siblingsCancelled", cancelled))
	return nil
}

// buildBooking constructs the confirmed booking from the hold's metadata. The
// amount actually paid decides whether the abono is full or partial.
func buildBooking(hold *models.TemporaryHold) (*models.ConfirmedBooking, error) {
	court, date, startTime, err := models.ParseSlotKey(hold.SlotKey)
	if err != nil {
		return nil, fmt.Errorf("hold %s: %w", hold.Reference, err)
	}

	tipoAbono := models.AbonoParcial
	if hold.Amount >= hold.TotalPrice {
		tipoAbono = models.AbonoCompleto
	}

	return &models.ConfirmedBooking{
		Court:         court,
		Date:          date,
		StartTime:     startTime,
		SlotKey:       hold.SlotKey,
		Client:        hold.Client,
		AmountPaid:    hold.Amount,
		TotalPrice:    hold.TotalPrice,
		TipoAbono:     tipoAbono,
		PaymentMethod: hold.PaymentMethod,
		TransactionID: hold.TransactionID,
		Reference:     hold.Reference,
	}, nil
}
