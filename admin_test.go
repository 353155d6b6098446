package evalia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func TestAdminRequiresRole(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	org := addUser(t, c, "org", competitions.RoleOrganizer)

	_, err := c.ListUsers(ctx, org, "")
	assert.True(t, errors.IsForbidden(err))
	_, err = c.SetUserStatus(ctx, org, "org", competitions.UserSuspended)
	assert.True(t, errors.IsForbidden(err))
	_, err = c.SetUserRole(ctx, org, "org", competitions.RoleAdmin)
	assert.True(t, errors.IsForbidden(err))
	_, err = c.PlatformStats(ctx, org)
	assert.True(t, errors.IsForbidden(err))
	_, err = c.ListUsers(ctx, nil, "")
	assert.True(t, errors.IsUnauthenticated(err))
}

func TestListUsers(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	admin := addUser(t, c, "admin", competitions.RoleAdmin)
	addUser(t, c, "alice", competitions.RoleParticipant)
	addUser(t, c, "bob", competitions.RoleParticipant)

	users, err := c.ListUsers(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = c.ListUsers(ctx, admin, "ALI")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].ID)

	users, err = c.ListUsers(ctx, admin, "bob@example")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestModeration(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	admin := addUser(t, c, "admin", competitions.RoleAdmin)
	addUser(t, c, "alice", competitions.RoleParticipant)

	u, err := c.SetUserStatus(ctx, admin, "alice", competitions.UserSuspended)
	require.NoError(t, err)
	assert.True(t, u.Suspended())

	u, err = c.SetUserStatus(ctx, admin, "alice", competitions.UserActive)
	require.NoError(t, err)
	assert.False(t, u.Suspended())

	_, err = c.SetUserStatus(ctx, admin, "alice", "banned")
	assert.True(t, errors.IsValidationError(err))
	_, err = c.SetUserStatus(ctx, admin, "admin", competitions.UserSuspended)
	assert.True(t, errors.IsForbidden(err))
	_, err = c.SetUserStatus(ctx, admin, "ghost", competitions.UserSuspended)
	assert.True(t, errors.IsNotFound(err))

	u, err = c.SetUserRole(ctx, admin, "alice", "organizer")
	require.NoError(t, err)
	assert.Equal(t, competitions.RoleOrganizer, u.Role)

	_, err = c.SetUserRole(ctx, admin, "alice", "wizard")
	assert.True(t, errors.IsValidationError(err))
	_, err = c.SetUserRole(ctx, admin, "admin", competitions.RoleParticipant)
	assert.True(t, errors.IsForbidden(err))
}

func TestPlatformStats(t *testing.T) {
	f := newSubmitFixture(t)
	ctx := context.Background()
	admin := addUser(t, f.c, "admin", competitions.RoleAdmin)
	addUser(t, f.c, "bob", competitions.RoleParticipant)
	_, err := f.c.SetUserStatus(ctx, admin, "bob", competitions.UserSuspended)
	require.NoError(t, err)

	_, err = f.c.Submit(ctx, f.alice, f.event.ID, upload("m.pkl", "m"))
	require.NoError(t, err)
	_, err = f.c.CreateEvent(ctx, f.org, testDraft("Bientôt"))
	require.NoError(t, err)

	stats, err := f.c.PlatformStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Users)
	assert.Equal(t, 2, stats.UsersByRole[competitions.RoleParticipant])
	assert.Equal(t, 1, stats.SuspendedUsers)
	assert.Equal(t, 2, stats.Events)
	assert.Equal(t, 1, stats.EventsByStatus[competitions.StatusActive])
	assert.Equal(t, 1, stats.EventsByStatus[competitions.StatusUpcoming])
	assert.Equal(t, 1, stats.Submissions)
	assert.Equal(t, 1, stats.SubmissionsByStatus[competitions.SubmissionPending])
	assert.Equal(t, 1, stats.Participations)
}

func TestProvisionUser(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	u, err := c.ProvisionUser(ctx, Registration{
		Name:     "Root",
		Email:    "Root@Example.com",
		Password: "long enough secret",
		Role:     competitions.RoleAdmin,
	})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "root@example.com", u.Email)

	s, err := c.Login(ctx, "root@example.com", "long enough secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.User.ID)

	_, err = c.ProvisionUser(ctx, Registration{Name: "Root", Email: "root@example.com", Password: "long enough secret"})
	assert.True(t, errors.IsAlreadyExists(err) || errors.IsConflict(err))
}
