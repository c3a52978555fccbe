// File: database/repository/hold/crud.go
package holdRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"courtly/models"
)

func (r *mongoHoldRepo) Create(ctx context.Context, hold *models.TemporaryHold) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = now
	}
	hold.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, hold)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	return err
}

func (r *mongoHoldRepo) GetByReference(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var hold models.TemporaryHold
	err := r.coll.FindOne(ctx, bson.M{"reference": reference}).Decode(&hold)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return &hold, nil
}
