// File: database/repository/reservation/mongo.go
package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"courtly/config"
	"courtly/database"
	"courtly/models"
)

type mongoReservationStore struct {
	holds    *mongo.Collection
	bookings *mongo.Collection
}

// NewMongoReservationStore constructs the transactional store over the
// temporary_holds and bookings collections.
func NewMongoReservationStore() ReservationStore {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &mongoReservationStore{
		holds:    db.Collection("temporary_holds"),
		bookings: db.Collection("bookings"),
	}
}

func (s *mongoReservationStore) RunTransaction(ctx context.Context, fn func(txCtx context.Context, tx ReservationTx) error) error {
	client := s.holds.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	tx := &mongoReservationTx{holds: s.holds, bookings: s.bookings}

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc, tx); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if err != nil {
		if isTransientTxnError(err) || errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("reservation transaction: %w", models.ErrTransactionConflict)
		}
		return err
	}
	return nil
}

// isTransientTxnError reports whether the server asked for a full transaction
// retry.
func isTransientTxnError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

type mongoReservationTx struct {
	holds    *mongo.Collection
	bookings *mongo.Collection
}

func (t *mongoReservationTx) GetHold(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	var hold models.TemporaryHold
	err := t.holds.FindOne(ctx, bson.M{"reference": reference}).Decode(&hold)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (t *mongoReservationTx) SlotFinalizedElsewhere(ctx context.Context, slotKey, excludeReference string) (bool, error) {
	filter := bson.M{
		"slotKey":   slotKey,
		"reference": bson.M{"$ne": excludeReference},
		"finalized": true,
	}
	count, err := t.holds.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check slot ownership for %s: %w", slotKey, err)
	}
	return count > 0, nil
}

func (t *mongoReservationTx) InsertBooking(ctx context.Context, booking *models.ConfirmedBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	if _, err := t.bookings.InsertOne(ctx, booking); err != nil {
		// The unique slotKey index rejects a second booking even when two
		// snapshot-isolated transactions both read the slot as free: their
		// write sets are disjoint, so only the index serializes them.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("booking for slot %s: %w", booking.SlotKey, models.ErrSlotAlreadyBooked)
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (t *mongoReservationTx) MarkHoldFinalized(ctx context.Context, reference, bookingID string) error {
	filter := bson.M{
		"reference": reference,
		"status":    models.HoldStatusPaid,
		"finalized": false,
	}
	update := bson.M{
		"$set": bson.M{
			"finalized":      true,
			"finalBookingId": bookingID,
			"updatedAt":      time.Now(),
		},
	}
	res, err := t.holds.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark hold %s finalized: %w", reference, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrConflict
	}
	return nil
}

func (t *mongoReservationTx) CancelRacingSiblings(ctx context.Context, slotKey, winnerReference, reason string) (int64, error) {
	now := time.Now()
	filter := bson.M{
		"slotKey":   slotKey,
		"reference": bson.M{"$ne": winnerReference},
		"status":    bson.M{"$in": models.RacingStatuses},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.HoldStatusCancelledBySibling,
			"cancelReason": reason,
			"cancelledAt":  now,
			"updatedAt":    now,
		},
	}
	res, err := t.holds.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel sibling holds for slot %s: %w", slotKey, err)
	}
	return res.ModifiedCount, nil
}
