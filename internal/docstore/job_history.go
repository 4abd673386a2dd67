package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"hrpulse/internal/types"
)

// jobHistoryDoc is the stored shape of a job history entry.
type jobHistoryDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	JobType    string             `bson:"jobType"`
	StartedAt  time.Time          `bson:"startedAt"`
	FinishedAt *time.Time         `bson:"finishedAt,omitempty"`
	Status     string             `bson:"status"`
	ItemsCount int                `bson:"itemsCount"`
	Error      string             `bson:"error,omitempty"`
}

// JobHistoryStore records job executions in the job history collection.
type JobHistoryStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewJobHistoryStore creates a JobHistoryStore over coll.
func NewJobHistoryStore(coll *mongo.Collection) *JobHistoryStore {
	return &JobHistoryStore{coll: coll, now: time.Now}
}

// Start inserts a running entry and returns its hex ObjectID, which Finish
// expects back unchanged.
func (s *JobHistoryStore) Start(ctx context.Context, jobType string) (string, error) {
	doc := jobHistoryDoc{
		ID:        primitive.NewObjectID(),
		JobType:   jobType,
		StartedAt: s.now().UTC(),
		Status:    "running",
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to start job history entry", err)
	}
	return doc.ID.Hex(), nil
}

// Finish sets the final status, item count and optional error message. An
// id that is not a valid ObjectID hex string is rejected without a write.
func (s *JobHistoryStore) Finish(ctx context.Context, id string, status string, items int, jobErr error) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "invalid job history id", err).
			WithDetails(map[string]any{"id": id})
	}

	res, err := s.coll.UpdateByID(ctx, oid, finishUpdate(s.now().UTC(), status, items, jobErr))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to finish job history entry", err)
	}
	if res.MatchedCount == 0 {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "job history entry not found", nil)
	}
	return nil
}

func finishUpdate(finishedAt time.Time, status string, items int, jobErr error) bson.D {
	set := bson.D{
		{Key: fieldFinishedAt, Value: finishedAt},
		{Key: fieldStatus, Value: status},
		{Key: fieldItemsCount, Value: items},
	}
	if jobErr != nil {
		set = append(set, bson.E{Key: fieldError, Value: jobErr.Error()})
	}
	return bson.D{{Key: "$set", Value: set}}
}
