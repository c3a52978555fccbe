package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	holdRepo "courtly/database/repository/hold"
)

// ExpirationSweeper reclaims holds whose deadline passed without a settled
// payment. It races harmlessly against the payment processor: both sides use
// precondition-guarded updates, and an approved payment landing after the
// sweep still wins.
type ExpirationSweeper struct {
	Holds  holdRepo.HoldRepository
	Logger *zap.Logger
	Now    func() time.Time // injectable for tests; defaults to time.Now
}

// Sweep expires every racing hold past its deadline and returns how many were
// reclaimed. A failed batch simply leaves the affected holds for the next
// interval.
func (s *ExpirationSweeper) Sweep(ctx context.Context) (int64, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	expired, err := s.Holds.ExpireStale(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expiration sweep failed: %w", err)
	}

	if expired > 0 {
		s.Logger.Info("expired stale holds", zap.Int64("count", expired))
	} else {
		s.Logger.Debug("expiration sweep found nothing to reclaim")
	}
	return expired, nil
}
