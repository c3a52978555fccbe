// File: database/repository/hold/queries.go
package holdRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"courtly/models"
)

func (r *mongoHoldRepo) FindRacingBySlotKey(ctx context.Context, slotKey, excludeReference string) ([]models.TemporaryHold, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"slotKey":   slotKey,
		"reference": bson.M{"$ne": excludeReference},
		"status":    bson.M{"$in": models.RacingStatuses},
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query racing holds for slot %s: %w", slotKey, err)
	}
	defer cursor.Close(ctx)

	var holds []models.TemporaryHold
	if err := cursor.All(ctx, &holds); err != nil {
		return nil, fmt.Errorf("failed to decode racing holds for slot %s: %w", slotKey, err)
	}
	return holds, nil
}
