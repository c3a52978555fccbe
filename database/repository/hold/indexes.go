// FILE: database/repository/hold/indexes.go
package holdRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the temporary_holds collection.
func (r *mongoHoldRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on the provider reference
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_reference"),
		},
		// Compound index for slotKey + status (sibling queries)
		{
			Keys:    bson.D{{Key: "slotKey", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("slotkey_status_idx"),
		},
		// Compound index for status + expiresAt (expiration sweep)
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("status_expires_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create hold indexes: %w", err)
	}
	return nil
}
