// File: database/repository/hold/interface.go
package holdRepo

import (
	"context"
	"time"

	"courtly/config"
	"courtly/database"
	"courtly/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// HoldRepository is the persistence abstraction over temporary holds. All
// status transitions are precondition-guarded: a method whose guard no longer
// matches reports models.ErrConflict (or a zero matched count for batch
// operations) instead of clobbering a concurrent writer.
type HoldRepository interface {
	Create(ctx context.Context, hold *models.TemporaryHold) error
	GetByReference(ctx context.Context, reference string) (*models.TemporaryHold, error)

	// MarkPaid transitions a hold to paid, recording the provider transaction
	// metadata. The guard admits locked, pending and expired holds: an
	// approved payment outranks a soft expiration.
	MarkPaid(ctx context.Context, reference, transactionID, paymentMethod string, amountPaid float64) (*models.TemporaryHold, error)
	// MarkRejected transitions a racing hold to rejected with the decline reason.
	MarkRejected(ctx context.Context, reference, reason string) (*models.TemporaryHold, error)
	// MarkVoided transitions a racing hold to voided.
	MarkVoided(ctx context.Context, reference string) (*models.TemporaryHold, error)

	// FindRacingBySlotKey returns the holds still contending for a slot,
	// excluding the given reference.
	FindRacingBySlotKey(ctx context.Context, slotKey, excludeReference string) ([]models.TemporaryHold, error)

	// ExpireStale marks every racing hold past its deadline as expired and
	// returns how many were reclaimed. Holds are independent, so this is a
	// batched multi-update, not a transaction.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)

	EnsureIndexes() error
}

// HoldWatcher is implemented by hold repositories that can surface a mutation
// stream. Kept separate from HoldRepository so callers that only mutate do not
// depend on change-stream support.
type HoldWatcher interface {
	WatchStatusChanges(ctx context.Context) (<-chan HoldChange, error)
}

type mongoHoldRepo struct {
	coll *mongo.Collection
}

// NewMongoHoldRepo constructs a new MongoDB HoldRepository.
func NewMongoHoldRepo() HoldRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &mongoHoldRepo{
		coll: db.Collection("temporary_holds"),
	}
}
