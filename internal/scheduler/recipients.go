package scheduler

import (
	"context"
	"log/slog"
	"time"

	"hrpulse/internal/types"
)

// Drop reasons reported in Resolution.Dropped.
const (
	DropProfileMissing = "profile_missing_or_inactive"
	DropEmptyProfileID = "empty_profile_id"
)

// DroppedRecipient describes a role assignment that could not be joined to
// an active profile.
type DroppedRecipient struct {
	ProfileID string `json:"profile_id"`
	Reason    string `json:"reason"`
}

// Resolution is the outcome of a recipient lookup.
type Resolution struct {
	Recipients []types.Recipient
	Dropped    []DroppedRecipient
}

// RecipientResolver resolves the notification audience in two stages:
// active role assignments for the target roles, then the active profiles
// behind them.
type RecipientResolver struct {
	roles       RoleAssignmentStore
	profiles    ProfileStore
	targetRoles []string
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewRecipientResolver creates a resolver for targetRoles. A zero
// callTimeout leaves store calls bounded only by the caller's context.
func NewRecipientResolver(roles RoleAssignmentStore, profiles ProfileStore, targetRoles []string, callTimeout time.Duration, logger *slog.Logger) *RecipientResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipientResolver{
		roles:       roles,
		profiles:    profiles,
		targetRoles: targetRoles,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Resolve returns the current recipients. Store failures are logged and
// yield an empty Resolution so the caller short-circuits.
func (r *RecipientResolver) Resolve(ctx context.Context) Resolution {
	assignments, err := r.listAssignments(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list role assignments",
			"roles", r.targetRoles,
			"error", err,
		)
		return Resolution{}
	}

	ids := make([]string, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	var dropped []DroppedRecipient
	for _, a := range assignments {
		if a.ProfileID == "" {
			dropped = append(dropped, DroppedRecipient{Reason: DropEmptyProfileID})
			continue
		}
		if _, dup := seen[a.ProfileID]; dup {
			continue
		}
		seen[a.ProfileID] = struct{}{}
		ids = append(ids, a.ProfileID)
	}

	if len(ids) == 0 {
		r.logger.WarnContext(ctx, "no active role assignments for target roles",
			"roles", r.targetRoles,
		)
		return Resolution{Dropped: dropped}
	}

	profiles, err := r.listProfiles(ctx, ids)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to fetch recipient profiles",
			"profile_count", len(ids),
			"error", err,
		)
		return Resolution{Dropped: dropped}
	}

	res := merge(ids, profiles)
	res.Dropped = append(dropped, res.Dropped...)

	for _, d := range res.Dropped {
		r.logger.WarnContext(ctx, "dropping recipient",
			"profile_id", d.ProfileID,
			"reason", d.Reason,
		)
	}
	if len(res.Recipients) == 0 {
		r.logger.WarnContext(ctx, "no active profiles for role assignments",
			"assignments", len(ids),
		)
	}
	return res
}

func (r *RecipientResolver) listAssignments(ctx context.Context) ([]types.RoleAssignment, error) {
	callCtx, cancel := withCallTimeout(ctx, r.callTimeout)
	defer cancel()

	assignments, err := r.roles.ListActiveByRoles(callCtx, r.targetRoles)
	if err != nil {
		return nil, wrapStoreErr("list role assignments", err)
	}

	// Stores filter by role and activity already; re-check so a lenient
	// backend cannot widen the audience.
	active := make([]types.RoleAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.IsActive && a.HasAnyRole(r.targetRoles) {
			active = append(active, a)
		}
	}
	return active, nil
}

func (r *RecipientResolver) listProfiles(ctx context.Context, ids []string) ([]types.Profile, error) {
	callCtx, cancel := withCallTimeout(ctx, r.callTimeout)
	defer cancel()

	profiles, err := r.profiles.ListActiveByIDs(callCtx, ids)
	if err != nil {
		return nil, wrapStoreErr("list profiles", err)
	}
	return profiles, nil
}

// merge joins profile IDs against profiles by identifier equality. The
// recipient order follows ids.
func merge(ids []string, profiles []types.Profile) Resolution {
	byID := make(map[string]types.Profile, len(profiles))
	for _, p := range profiles {
		if p.IsActive {
			byID[p.ID] = p
		}
	}

	res := Resolution{Recipients: make([]types.Recipient, 0, len(ids))}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			res.Dropped = append(res.Dropped, DroppedRecipient{ProfileID: id, Reason: DropProfileMissing})
			continue
		}
		res.Recipients = append(res.Recipients, types.Recipient{ProfileID: id, Profile: p})
	}
	return res
}

func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func wrapStoreErr(op string, err error) error {
	if types.IsCode(err, types.ErrCodeInternalDB) {
		return err
	}
	return types.NewAppError(types.ErrCodeInternalDB, "failed to "+op, err)
}
