// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"

	"courtly/config"
	"courtly/database"
	"courtly/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository persists confirmed bookings. Bookings are immutable once
// created, so there is no update path.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.ConfirmedBooking, error)
	GetByReference(ctx context.Context, reference string) (*models.ConfirmedBooking, error)
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
