// Package docstore provides the MongoDB backend for the attendance summary
// job. It mirrors the PostgreSQL repositories in internal/db: the same
// store interfaces, with the notification log's idempotency key enforced by
// a unique compound index.
package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hrpulse/internal/config"
)

// Field names shared by filters, sorts and index definitions.
const (
	fieldID         = "_id"
	fieldCreatedAt  = "createdAt"
	fieldIsActive   = "isActive"
	fieldRoles      = "roles"
	fieldTo         = "to"
	fieldKind       = "kind"
	fieldPeriodKey  = "metadata.periodKey"
	fieldJobType    = "jobType"
	fieldStatus     = "status"
	fieldStartedAt  = "startedAt"
	fieldFinishedAt = "finishedAt"
	fieldItemsCount = "itemsCount"
	fieldError      = "error"
)

// Connect opens a client for cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	uri := cfg.URI.Unmask()
	if uri == "" {
		return nil, fmt.Errorf("mongo connection URI is empty")
	}

	opts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Stores bundles the collection-backed stores for one database.
type Stores struct {
	Attendance    *AttendanceStore
	Roles         *RoleAssignmentStore
	Profiles      *ProfileStore
	Notifications *NotificationLogStore
	JobHistory    *JobHistoryStore
}

// NewStores binds every store to its configured collection in db. It does
// not touch the server; call EnsureIndexes first so the notification log
// has its unique key before any store is used.
func NewStores(db *mongo.Database, cfg config.MongoConfig) *Stores {
	return &Stores{
		Attendance:    NewAttendanceStore(db.Collection(cfg.AttendanceCollection)),
		Roles:         NewRoleAssignmentStore(db.Collection(cfg.RoleAssignmentCollection)),
		Profiles:      NewProfileStore(db.Collection(cfg.ProfileCollection)),
		Notifications: NewNotificationLogStore(db.Collection(cfg.NotificationLogCollection)),
		JobHistory:    NewJobHistoryStore(db.Collection(cfg.JobHistoryCollection)),
	}
}
