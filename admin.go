package evalia

import (
	"context"
	"strings"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Administration handles moderation and platform statistics.
type Administration interface {
	// ListUsers returns accounts whose name or email contains search.
	ListUsers(ctx context.Context, actor *competitions.User, search string) ([]*competitions.User, error)

	// SetUserStatus suspends or reactivates an account.
	SetUserStatus(ctx context.Context, actor *competitions.User, id string, status competitions.UserStatus) (*competitions.User, error)

	// SetUserRole changes the role of an account.
	SetUserRole(ctx context.Context, actor *competitions.User, id string, role competitions.Role) (*competitions.User, error)

	// PlatformStats counts users, events, submissions and participations.
	PlatformStats(ctx context.Context, actor *competitions.User) (*PlatformStats, error)

	// ProvisionUser creates an account of any role without a session. It is
	// meant for trusted local tooling and is not exposed over HTTP.
	ProvisionUser(ctx context.Context, reg Registration) (*competitions.User, error)
}

// PlatformStats are the counters of the admin dashboard.
type PlatformStats struct {
	Users               int                                   `json:"users" yaml:"users"`
	UsersByRole         map[competitions.Role]int             `json:"users_by_role" yaml:"users_by_role"`
	SuspendedUsers      int                                   `json:"suspended_users" yaml:"suspended_users"`
	Events              int                                   `json:"events" yaml:"events"`
	EventsByStatus      map[competitions.EventStatus]int      `json:"events_by_status" yaml:"events_by_status"`
	Submissions         int                                   `json:"submissions" yaml:"submissions"`
	SubmissionsByStatus map[competitions.SubmissionStatus]int `json:"submissions_by_status" yaml:"submissions_by_status"`
	Participations      int                                   `json:"participations" yaml:"participations"`
}

func requireAdmin(actor *competitions.User, action string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return errors.NewForbiddenError(action, "users", "administrator role required")
	}
	return nil
}

// ListUsers implements Administration.
func (c *client) ListUsers(ctx context.Context, actor *competitions.User, search string) ([]*competitions.User, error) {
	if err := requireAdmin(actor, "list"); err != nil {
		return nil, err
	}
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return users, nil
	}
	out := users[:0]
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u)
		}
	}
	return out, nil
}

// SetUserStatus implements Administration. Administrators cannot suspend
// themselves.
func (c *client) SetUserStatus(ctx context.Context, actor *competitions.User, id string, status competitions.UserStatus) (*competitions.User, error) {
	if err := requireAdmin(actor, "moderate"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errors.NewValidationError("status", status, "must be active or suspended")
	}
	if id == actor.ID && status == competitions.UserSuspended {
		return nil, errors.NewForbiddenError("suspend", "user "+id, "administrators cannot suspend themselves")
	}
	u, err := c.store.UpdateUser(ctx, id, func(u *competitions.User) error {
		u.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", id).Str("status", string(status)).Str("actor_id", actor.ID).Msg("User status changed")
	return u, nil
}

// SetUserRole implements Administration. Administrators cannot demote
// themselves.
func (c *client) SetUserRole(ctx context.Context, actor *competitions.User, id string, role competitions.Role) (*competitions.User, error) {
	if err := requireAdmin(actor, "change roles of"); err != nil {
		return nil, err
	}
	parsed, err := competitions.ParseRole(string(role))
	if err != nil {
		return nil, errors.NewValidationError("role", role, err.Error())
	}
	if id == actor.ID && parsed != competitions.RoleAdmin {
		return nil, errors.NewForbiddenError("demote", "user "+id, "administrators cannot demote themselves")
	}
	u, err := c.store.UpdateUser(ctx, id, func(u *competitions.User) error {
		u.Role = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", id).Str("role", string(parsed)).Str("actor_id", actor.ID).Msg("User role changed")
	return u, nil
}

// PlatformStats implements Administration.
func (c *client) PlatformStats(ctx context.Context, actor *competitions.User) (*PlatformStats, error) {
	if err := requireAdmin(actor, "view statistics of"); err != nil {
		return nil, err
	}
	stats := &PlatformStats{
		UsersByRole:         make(map[competitions.Role]int),
		EventsByStatus:      make(map[competitions.EventStatus]int),
		SubmissionsByStatus: make(map[competitions.SubmissionStatus]int),
	}

	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	stats.Users = len(users)
	for _, u := range users {
		stats.UsersByRole[u.Role]++
		if u.Suspended() {
			stats.SuspendedUsers++
		}
	}

	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	stats.Events = len(events)
	for _, e := range events {
		stats.EventsByStatus[e.Status]++
		members, err := c.store.ListMembers(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		stats.Participations += len(members)
	}

	subs, err := c.store.ListSubmissions(ctx, competitions.SubmissionQuery{})
	if err != nil {
		return nil, err
	}
	stats.Submissions = len(subs)
	for _, s := range subs {
		stats.SubmissionsByStatus[s.Status]++
	}
	return stats, nil
}

// ProvisionUser implements Administration.
func (c *client) ProvisionUser(ctx context.Context, reg Registration) (*competitions.User, error) {
	if reg.Role == "" {
		reg.Role = competitions.RoleParticipant
	}
	u, err := c.createUser(ctx, reg)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("User provisioned")
	return u, nil
}
