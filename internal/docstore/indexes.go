package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hrpulse/internal/config"
)

// Index names.
const (
	IndexNotificationKey  = "notification_to_kind_period_unique"
	IndexAttendanceByTime = "attendance_created_at"
	IndexActiveRoles      = "role_assignment_roles_active"
	IndexJobHistoryByType = "job_history_type_started"
)

// MongoDB server codes for an index that already exists with other options.
// They are not proof the existing index is the one wanted; see
// verifyNotificationKey.
const (
	codeIndexOptionsConflict = 85
	codeIndexKeySpecConflict = 86
)

type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

func indexModels(cfg config.MongoConfig) []collectionIndex {
	return []collectionIndex{
		{
			collection: cfg.NotificationLogCollection,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: fieldTo, Value: 1},
					{Key: fieldKind, Value: 1},
					{Key: fieldPeriodKey, Value: 1},
				},
				Options: options.Index().SetName(IndexNotificationKey).SetUnique(true),
			},
		},
		{
			collection: cfg.AttendanceCollection,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: fieldCreatedAt, Value: 1}},
				Options: options.Index().SetName(IndexAttendanceByTime),
			},
		},
		{
			collection: cfg.RoleAssignmentCollection,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: fieldRoles, Value: 1},
					{Key: fieldIsActive, Value: 1},
				},
				Options: options.Index().SetName(IndexActiveRoles),
			},
		},
		{
			collection: cfg.JobHistoryCollection,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: fieldJobType, Value: 1},
					{Key: fieldStartedAt, Value: -1},
				},
				Options: options.Index().SetName(IndexJobHistoryByType),
			},
		},
	}
}

// ErrNotificationKeyMissing is returned by EnsureIndexes when the
// notification log has no unique index on (to, kind, metadata.periodKey).
var ErrNotificationKeyMissing = errors.New("notification log unique key index is missing")

// EnsureIndexes creates the indexes the stores rely on. Indexes that already
// exist under the same name are left alone.
//
// A name or key conflict is tolerated for the read indexes, but the
// notification log is then checked with listIndexes: unless some index
// enforces uniqueness over exactly (to, kind, metadata.periodKey),
// EnsureIndexes fails with ErrNotificationKeyMissing and the job must not
// run against this database.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cfg config.MongoConfig) error {
	for _, ix := range indexModels(cfg) {
		_, err := db.Collection(ix.collection).Indexes().CreateOne(ctx, ix.model)
		if err != nil && !isIndexExistsError(err) {
			return fmt.Errorf("create index on %s: %w", ix.collection, err)
		}
	}
	return verifyNotificationKey(ctx, db.Collection(cfg.NotificationLogCollection))
}

// indexSpec is the subset of a listIndexes entry the key check reads.
type indexSpec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

func verifyNotificationKey(ctx context.Context, coll *mongo.Collection) error {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("list indexes on %s: %w", coll.Name(), err)
	}
	var specs []indexSpec
	if err := cur.All(ctx, &specs); err != nil {
		return fmt.Errorf("decode indexes on %s: %w", coll.Name(), err)
	}
	for _, spec := range specs {
		if spec.Unique && isNotificationKey(spec.Key) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", coll.Name(), ErrNotificationKeyMissing)
}

// isNotificationKey reports whether key is the ascending compound key
// (to, kind, metadata.periodKey) in that order.
func isNotificationKey(key bson.D) bool {
	want := []string{fieldTo, fieldKind, fieldPeriodKey}
	if len(key) != len(want) {
		return false
	}
	for i, e := range key {
		if e.Key != want[i] || !isAscending(e.Value) {
			return false
		}
	}
	return true
}

// isAscending accepts the numeric encodings servers return for a 1 key.
func isAscending(v any) bool {
	switch n := v.(type) {
	case int32:
		return n == 1
	case int64:
		return n == 1
	case float64:
		return n == 1
	default:
		return false
	}
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == codeIndexOptionsConflict || cmdErr.Code == codeIndexKeySpecConflict {
			return true
		}
	}
	return strings.Contains(err.Error(), "already exists")
}
