package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hrpulse/internal/types"
)

// AttendanceStore reads the attendance records collection. Documents with
// missing optional fields decode to their zero values.
type AttendanceStore struct {
	coll *mongo.Collection
}

// NewAttendanceStore creates an AttendanceStore over coll.
func NewAttendanceStore(coll *mongo.Collection) *AttendanceStore {
	return &AttendanceStore{coll: coll}
}

// ListCreatedBetween returns records with createdAt in [start, end], oldest
// first.
func (s *AttendanceStore) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]types.AttendanceRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: 1}, {Key: fieldID, Value: 1}})

	cur, err := s.coll.Find(ctx, createdBetweenFilter(start, end), opts)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query attendance records", err)
	}

	var records []types.AttendanceRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode attendance records", err)
	}
	return records, nil
}

func createdBetweenFilter(start, end time.Time) bson.D {
	return bson.D{{Key: fieldCreatedAt, Value: bson.D{
		{Key: "$gte", Value: start},
		{Key: "$lte", Value: end},
	}}}
}

// RoleAssignmentStore reads the role assignments collection.
type RoleAssignmentStore struct {
	coll *mongo.Collection
}

// NewRoleAssignmentStore creates a RoleAssignmentStore over coll.
func NewRoleAssignmentStore(coll *mongo.Collection) *RoleAssignmentStore {
	return &RoleAssignmentStore{coll: coll}
}

// ListActiveByRoles returns active assignments holding any of roles. An
// empty roles slice returns nil without querying.
func (s *RoleAssignmentStore) ListActiveByRoles(ctx context.Context, roles []string) ([]types.RoleAssignment, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	cur, err := s.coll.Find(ctx, activeRolesFilter(roles))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query role assignments", err)
	}

	var out []types.RoleAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode role assignments", err)
	}
	return out, nil
}

func activeRolesFilter(roles []string) bson.D {
	return bson.D{
		{Key: fieldIsActive, Value: true},
		{Key: fieldRoles, Value: bson.D{{Key: "$in", Value: roles}}},
	}
}

// ProfileStore reads the profiles collection.
type ProfileStore struct {
	coll *mongo.Collection
}

// NewProfileStore creates a ProfileStore over coll.
func NewProfileStore(coll *mongo.Collection) *ProfileStore {
	return &ProfileStore{coll: coll}
}

// ListActiveByIDs batch-fetches the active profiles among ids with one
// $in query.
func (s *ProfileStore) ListActiveByIDs(ctx context.Context, ids []string) ([]types.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cur, err := s.coll.Find(ctx, activeIDsFilter(ids))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query profiles", err)
	}

	var out []types.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode profiles", err)
	}
	return out, nil
}

func activeIDsFilter(ids []string) bson.D {
	return bson.D{
		{Key: fieldID, Value: bson.D{{Key: "$in", Value: ids}}},
		{Key: fieldIsActive, Value: true},
	}
}
