package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	holdRepo "courtly/database/repository/hold"
	"courtly/models"
)

// HoldChangeHandler receives before/after snapshots of a hold whose status
// changed. Before is nil when no prior snapshot exists.
type HoldChangeHandler interface {
	HandleHoldChange(ctx context.Context, before, after *models.TemporaryHold) error
}

// PaymentProcessor ingests provider payment events and applies them to the
// matching temporary hold. Every transition is idempotent: preconditions in
// the repository make a re-delivered event a harmless no-op.
type PaymentProcessor struct {
	Holds    holdRepo.HoldRepository
	Notifier HoldChangeHandler // optional direct-invocation trigger
	Dedup    *redis.Client     // optional advisory dedup of provider event ids
	Logger   *zap.Logger
}

const dedupTTL = 24 * time.Hour

// Process validates and applies one payment event. A nil return means the
// event was handled or deliberately ignored; only unexpected store failures
// return an error so the delivery mechanism retries.
func (p *PaymentProcessor) Process(ctx context.Context, event models.PaymentEvent) error {
	if event.Reference == "" {
		return fmt.Errorf("%w: missing reference", ErrInvalidEvent)
	}

	if p.seenBefore(ctx, event) {
		p.Logger.Debug("duplicate payment event skipped",
			zap.String("reference", event.Reference),
			zap.String("transactionId", event.ProviderTransactionID))
		return nil
	}

	before, err := p.Holds.GetByReference(ctx, event.Reference)
	if errors.Is(err, models.ErrHoldNotFound) {
		// The hold already expired and was purged, or the reference never
		// existed. Webhook delivery may be delayed past the retention
		// window, so this is not an error.
		p.Logger.Info("payment event for unknown reference dropped",
			zap.String("reference", event.Reference),
			zap.String("status", event.Status))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up hold %s: %w", event.Reference, err)
	}

	var after *models.TemporaryHold
	switch event.Status {
	case models.PaymentStatusApproved:
		after, err = p.Holds.MarkPaid(ctx, event.Reference,
			event.ProviderTransactionID, event.PaymentMethod, event.AmountPaid())
	case models.PaymentStatusDeclined:
		after, err = p.Holds.MarkRejected(ctx, event.Reference, event.StatusMessage)
	case models.PaymentStatusVoided:
		after, err = p.Holds.MarkVoided(ctx, event.Reference)
	default:
		// Forward-compatibility: accept unknown statuses without mutation.
		p.Logger.Info("payment event with unhandled status ignored",
			zap.String("reference", event.Reference),
			zap.String("status", event.Status))
		return nil
	}

	if errors.Is(err, models.ErrConflict) {
		// The hold already left the guarded states; a second delivery of the
		// same event, or the sweep winning the race. Either way a no-op.
		p.Logger.Info("payment event was a no-op, hold already settled",
			zap.String("reference", event.Reference),
			zap.String("status", event.Status),
			zap.String("holdStatus", string(before.Status)))
		return nil
	}
	if errors.Is(err, models.ErrHoldNotFound) {
		p.Logger.Info("hold vanished while applying payment event",
			zap.String("reference", event.Reference))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s event to hold %s: %w", event.Status, event.Reference, err)
	}

	p.Logger.Info("payment event applied",
		zap.String("reference", event.Reference),
		zap.String("status", event.Status),
		zap.String("holdStatus", string(after.Status)))

	p.markSeen(ctx, event)

	if p.Notifier != nil {
		if err := p.Notifier.HandleHoldChange(ctx, before, after); err != nil {
			// Finalization failures are contained here: the webhook already
			// did its job and the provider must not re-deliver for this.
			p.Logger.Error("hold change handling failed",
				zap.String("reference", event.Reference), zap.Error(err))
		}
	}
	return nil
}

func (p *PaymentProcessor) seenBefore(ctx context.Context, event models.PaymentEvent) bool {
	if p.Dedup == nil || event.ProviderTransactionID == "" {
		return false
	}
	n, err := p.Dedup.Exists(ctx, dedupKey(event)).Result()
	if err != nil {
		// Dedup is advisory only; correctness comes from the preconditions.
		p.Logger.Warn("event dedup check failed", zap.Error(err))
		return false
	}
	return n > 0
}

// markSeen records the event id only after a successful apply, so a failed
// apply stays retryable.
func (p *PaymentProcessor) markSeen(ctx context.Context, event models.PaymentEvent) {
	if p.Dedup == nil || event.ProviderTransactionID == "" {
		return
	}
	if err := p.Dedup.Set(ctx, dedupKey(event), 1, dedupTTL).Err(); err != nil {
		p.Logger.Warn("failed to record processed event id", zap.Error(err))
	}
}

func dedupKey(event models.PaymentEvent) string {
	return fmt.Sprintf("webhook:event:%s:%s", event.ProviderTransactionID, event.Status)
}
