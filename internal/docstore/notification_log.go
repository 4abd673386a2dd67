package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hrpulse/internal/types"
)

// NotificationLogStore is the append-only notifications collection. The
// unique index created by EnsureIndexes on (to, kind, metadata.periodKey)
// turns a concurrent second insert into a duplicate-key error.
type NotificationLogStore struct {
	coll *mongo.Collection
}

// NewNotificationLogStore creates a NotificationLogStore over coll.
func NewNotificationLogStore(coll *mongo.Collection) *NotificationLogStore {
	return &NotificationLogStore{coll: coll}
}

// Exists reports whether a notification for (to, kind, periodKey) exists.
func (s *NotificationLogStore) Exists(ctx context.Context, to, kind, periodKey string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: fieldID, Value: 1}})

	err := s.coll.FindOne(ctx, notificationKeyFilter(to, kind, periodKey), opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check notification log", err)
	}
	return true, nil
}

// CreateIfAbsent inserts entry. A duplicate-key error on the unique index
// means another writer holds the key and is reported as false, nil.
func (s *NotificationLogStore) CreateIfAbsent(ctx context.Context, entry *types.NotificationLogEntry) (bool, error) {
	if entry.To == "" || entry.Kind == "" || entry.Metadata.PeriodKey == "" {
		return false, types.NewAppError(types.ErrCodeValidationMissingField,
			"notification requires recipient, kind and period key", nil)
	}

	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to create notification", err)
	}
	return true, nil
}

func notificationKeyFilter(to, kind, periodKey string) bson.D {
	return bson.D{
		{Key: fieldTo, Value: to},
		{Key: fieldKind, Value: kind},
		{Key: fieldPeriodKey, Value: periodKey},
	}
}
