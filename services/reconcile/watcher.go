package reconcile

import (
	"context"

	"go.uber.org/zap"

	holdRepo "courtly/database/repository/hold"
)

// RunChangeWatcher consumes the hold mutation stream and feeds each
// before/after snapshot to the handler until ctx is cancelled. This is the
// change-notification trigger for finalization; deployments on standalone
// Mongo use the processor's direct notifier instead.
func RunChangeWatcher(ctx context.Context, watcher holdRepo.HoldWatcher, handler HoldChangeHandler, logger *zap.Logger) error {
	changes, err := watcher.WatchStatusChanges(ctx)
	if err != nil {
		return err
	}

	logger.Info("hold change watcher started")
	for change := range changes {
		if err := handler.HandleHoldChange(ctx, change.Before, change.After); err != nil {
			ref := ""
			if change.After != nil {
				ref = change.After.Reference
			}
			logger.Error("change-triggered finalization failed",
				zap.String("reference", ref), zap.Error(err))
		}
	}
	logger.Info("hold change watcher stopped")
	return ctx.Err()
}
