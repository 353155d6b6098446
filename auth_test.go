package evalia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func TestRegisterAndLogin(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	session, err := c.Register(ctx, Registration{Name: " Ada ", Email: "Ada@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, "Ada", session.User.Name)
	assert.Equal(t, competitions.RoleParticipant, session.User.Role)
	assert.Equal(t, competitions.AvatarURL("Ada"), session.User.Avatar)

	t.Run("login is case-insensitive on email", func(t *testing.T) {
		s, err := c.Login(ctx, "ADA@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, s.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, "ada@example.com", "wrong-horse")
		assert.True(t, errors.IsUnauthenticated(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := c.Login(ctx, "nobody@example.com", "whatever1")
		assert.True(t, errors.IsUnauthenticated(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := c.Register(ctx, Registration{Name: "Other", Email: "ada@example.com", Password: "password1"})
		assert.True(t, errors.IsConflict(err))
	})
}

func TestRegisterValidation(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		reg   Registration
		check func(error) bool
	}{
		{"admin self-registration", Registration{Name: "Eve", Email: "eve@example.com", Password: "password1", Role: competitions.RoleAdmin}, errors.IsValidationError},
		{"missing name", Registration{Email: "x@example.com", Password: "password1"}, errors.IsValidationError},
		{"bad email", Registration{Name: "X", Email: "not-an-email", Password: "password1"}, errors.IsValidationError},
		{"short password", Registration{Name: "X", Email: "x@example.com", Password: "short"}, errors.IsValidationError},
		{"unknown role", Registration{Name: "X", Email: "x@example.com", Password: "password1", Role: "wizard"}, errors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Register(ctx, tt.reg)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}

	s, err := c.Register(ctx, Registration{Name: "Olu", Email: "olu@example.com", Password: "password1", Role: "organizer"})
	require.NoError(t, err)
	assert.Equal(t, competitions.RoleOrganizer, s.User.Role)
}

func TestLoginAutoProvision(t *testing.T) {
	c, _ := newTestClient(t, WithAutoProvision(true))
	s, err := c.Login(context.Background(), "newcomer@evalia.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "newcomer", s.User.Name)
	assert.Equal(t, competitions.RoleParticipant, s.User.Role)

	again, err := c.Login(context.Background(), "newcomer@evalia.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, again.User.ID)
}

func TestAuthenticateAndLogout(t *testing.T) {
	c, clk := newTestClient(t)
	ctx := context.Background()
	admin := addUser(t, c, "root", competitions.RoleAdmin)

	s, err := c.Register(ctx, Registration{Name: "Bo", Email: "bo@example.com", Password: "password1"})
	require.NoError(t, err)

	u, claims, err := c.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)
	assert.Equal(t, s.User.ID, claims.UserID())

	// Role changes apply to open sessions.
	_, err = c.SetUserRole(ctx, admin, u.ID, competitions.RoleOrganizer)
	require.NoError(t, err)
	u, _, err = c.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, competitions.RoleOrganizer, u.Role)

	// So do suspensions.
	_, err = c.SetUserStatus(ctx, admin, u.ID, competitions.UserSuspended)
	require.NoError(t, err)
	_, _, err = c.Authenticate(ctx, s.Token)
	assert.True(t, errors.IsForbidden(err))
	_, err = c.Login(ctx, "bo@example.com", "password1")
	assert.True(t, errors.IsForbidden(err))

	_, err = c.SetUserStatus(ctx, admin, u.ID, competitions.UserActive)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx, s.Token))
	_, _, err = c.Authenticate(ctx, s.Token)
	assert.True(t, errors.IsUnauthenticated(err))

	s2, err := c.Login(ctx, "bo@example.com", "password1")
	require.NoError(t, err)
	clk.Advance(25 * time.Hour)
	_, _, err = c.Authenticate(ctx, s2.Token)
	assert.True(t, errors.IsUnauthenticated(err), "expired token")

	_, _, err = c.Authenticate(ctx, "garbage")
	assert.True(t, errors.IsUnauthenticated(err))
}

func TestUpdateProfile(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	u := addUser(t, c, "cy", competitions.RoleParticipant)

	name := "Cyrille"
	updated, err := c.UpdateProfile(ctx, u, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Cyrille", updated.Name)

	empty := ""
	updated, err = c.UpdateProfile(ctx, u, ProfileUpdate{Avatar: &empty})
	require.NoError(t, err)
	assert.Equal(t, competitions.AvatarURL("Cyrille"), updated.Avatar)

	blank := "  "
	_, err = c.UpdateProfile(ctx, u, ProfileUpdate{Name: &blank})
	assert.True(t, errors.IsValidationError(err))

	_, err = c.UpdateProfile(ctx, nil, ProfileUpdate{Name: &name})
	assert.True(t, errors.IsUnauthenticated(err))
}
