// File: database/repository/hold/watch.go
package holdRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"courtly/models"
	"courtly/utils"
)

// HoldChange carries the before/after snapshots of one hold mutation. Before
// is nil when the pre-image is unavailable (inserts, or servers without
// pre-image support).
type HoldChange struct {
	Before *models.TemporaryHold
	After  *models.TemporaryHold
}

// WatchStatusChanges opens a change stream over hold mutations that touch the
// status field and forwards before/after snapshots to the returned channel
// until ctx is cancelled. Requires a replica-set deployment with document
// pre-images enabled on the collection.
func (r *mongoHoldRepo) WatchStatusChanges(ctx context.Context) (<-chan HoldChange, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"update", "replace"}},
		}}},
	}

	opts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup).
		SetFullDocumentBeforeChange(options.WhenAvailable)

	stream, err := r.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open hold change stream: %w", err)
	}

	out := make(chan HoldChange)
	go func() {
		logger := utils.GetLogger()
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				FullDocument             *models.TemporaryHold `bson:"fullDocument"`
				FullDocumentBeforeChange *models.TemporaryHold `bson:"fullDocumentBeforeChange"`
			}
			if err := stream.Decode(&event); err != nil {
				logger.Error("failed to decode hold change event", zap.Error(err))
				continue
			}
			if event.FullDocument == nil {
				continue
			}
			// Only status mutations interest the finalizer.
			if event.FullDocumentBeforeChange != nil &&
				event.FullDocumentBeforeChange.Status == event.FullDocument.Status {
				continue
			}
			select {
			case out <- HoldChange{Before: event.FullDocumentBeforeChange, After: event.FullDocument}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logger.Error("hold change stream terminated", zap.Error(err))
		}
	}()

	return out, nil
}
