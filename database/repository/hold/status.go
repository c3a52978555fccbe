// File: database/repository/hold/status.go
package holdRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"courtly/models"
)

// transition runs one precondition-guarded status update and returns the
// updated document. A missing document maps to models.ErrHoldNotFound; a
// document whose status fell outside the guard maps to models.ErrConflict.
func (r *mongoHoldRepo) transition(ctx context.Context, reference string, from []models.HoldStatus, update bson.M) (*models.TemporaryHold, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"reference": reference,
		"status":    bson.M{"$in": from},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.TemporaryHold
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a vanished hold from a lost race.
		count, cerr := r.coll.CountDocuments(ctx, bson.M{"reference": reference})
		if cerr != nil {
			return nil, fmt.Errorf("failed to recheck hold %s: %w", reference, cerr)
		}
		if count == 0 {
			return nil, models.ErrHoldNotFound
		}
		return nil, models.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition hold %s: %w", reference, err)
	}
	return &updated, nil
}

func (r *mongoHoldRepo) MarkPaid(ctx context.Context, reference, transactionID, paymentMethod string, amountPaid float64) (*models.TemporaryHold, error) {
	now := time.Now()
	// Expired holds are still payable: a late approved webhook outranks the
	// sweep's soft expiration.
	from := []models.HoldStatus{models.HoldStatusLocked, models.HoldStatusPending, models.HoldStatusExpired}
	update := bson.M{
		"$set": bson.M{
			"status":          models.HoldStatusPaid,
			"transactionId":   transactionID,
			"paymentMethod":   paymentMethod,
			"amount":          amountPaid,
			"webhookReceived": true,
			"paidAt":          now,
			"updatedAt":       now,
		},
	}
	return r.transition(ctx, reference, from, update)
}

func (r *mongoHoldRepo) MarkRejected(ctx context.Context, reference, reason string) (*models.TemporaryHold, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":          models.HoldStatusRejected,
			"statusMessage":   reason,
			"webhookReceived": true,
			"updatedAt":       now,
		},
	}
	return r.transition(ctx, reference, models.RacingStatuses, update)
}

func (r *mongoHoldRepo) MarkVoided(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":          models.HoldStatusVoided,
			"webhookReceived": true,
			"updatedAt":       now,
		},
	}
	return r.transition(ctx, reference, models.RacingStatuses, update)
}

func (r *mongoHoldRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    bson.M{"$in": models.RacingStatuses},
		"expiresAt": bson.M{"$lt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.HoldStatusExpired,
			"expiredAt": now,
			"updatedAt": now,
		},
	}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale holds: %w", err)
	}
	return res.ModifiedCount, nil
}
