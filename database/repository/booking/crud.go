// File: database/repository/booking/crud.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"courtly/models"
)

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.ConfirmedBooking, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *mongoBookingRepo) GetByReference(ctx context.Context, reference string) (*models.ConfirmedBooking, error) {
	return r.findOne(ctx, bson.M{"reference": reference})
}

func (r *mongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.ConfirmedBooking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.ConfirmedBooking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}
