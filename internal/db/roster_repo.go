package db

import (
	"context"

	"hrpulse/internal/types"
)

// RoleAssignmentRepository reads the role_assignments table, owned by the
// HR application. Roles are
// stored as a TEXT[] column.
type RoleAssignmentRepository struct {
	db DBTX
}

// NewRoleAssignmentRepository creates a new RoleAssignmentRepository backed
// by the given database connection (pool or transaction).
func NewRoleAssignmentRepository(db DBTX) *RoleAssignmentRepository {
	return &RoleAssignmentRepository{db: db}
}

// ListActiveByRoles returns active assignments whose roles overlap roles.
// An empty roles slice returns nil without querying.
//
// The && array-overlap operator can use the partial GIN index
// idx_role_assignments_roles_active:
//
//	SELECT profile_id, roles, is_active FROM role_assignments
//	WHERE is_active AND roles && $1::text[]
//
// Profiles with several matching roles appear once per assignment row;
// deduplication is left to the caller.
func (r *RoleAssignmentRepository) ListActiveByRoles(ctx context.Context, roles []string) ([]types.RoleAssignment, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT profile_id, roles, is_active
		 FROM role_assignments
		 WHERE is_active AND roles && $1::text[]`,
		roles,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query role assignments", err)
	}
	defer rows.Close()

	var out []types.RoleAssignment
	for rows.Next() {
		var a types.RoleAssignment
		if err := rows.Scan(&a.ProfileID, &a.Roles, &a.IsActive); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan role assignment", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating role assignments", err)
	}
	return out, nil
}

// ProfileRepository reads the profiles table. NULL full_name and email
// columns are returned as empty strings.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository backed by the given
// database connection (pool or transaction).
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListActiveByIDs batch-fetches the active profiles among ids in a single
// round trip.
func (r *ProfileRepository) ListActiveByIDs(ctx context.Context, ids []string) ([]types.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, is_active, COALESCE(full_name, ''), COALESCE(email, '')
		 FROM profiles
		 WHERE is_active AND id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query profiles", err)
	}
	defer rows.Close()

	var out []types.Profile
	for rows.Next() {
		var p types.Profile
		if err := rows.Scan(&p.ID, &p.IsActive, &p.FullName, &p.Email); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan profile", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating profiles", err)
	}
	return out, nil
}
