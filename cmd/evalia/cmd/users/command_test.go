package users

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func run(t *testing.T, mock *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(mock)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateOrganizer(t *testing.T) {
	mock := application.NewTestMock(t, "json")

	out, err := run(t, mock, "create",
		"--email", "Kouassi@IFRI.bj",
		"--name", "Dr. Kouassi",
		"--password", "correct-horse",
		"--role", "organizer",
	)
	require.NoError(t, err)

	var user competitions.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "kouassi@ifri.bj", user.Email)
	assert.Equal(t, competitions.RoleOrganizer, user.Role)

	// The new account can log in.
	client, err := mock.Client(context.Background())
	require.NoError(t, err)
	session, err := client.Login(context.Background(), "kouassi@ifri.bj", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
}

func TestCreateDefaultsNameAndRole(t *testing.T) {
	mock := application.NewTestMock(t, "table")

	out, err := run(t, mock, "create", "--email", "awa@example.com", "--password", "long-enough")
	require.NoError(t, err)
	assert.Contains(t, out, "Created participant account for awa@example.com")
	assert.Contains(t, out, "awa")
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	mock := application.NewTestMock(t, "json")

	_, err := run(t, mock, "create", "--email", "x@example.com", "--password", "long-enough", "--role", "superuser")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestCreateDuplicateEmail(t *testing.T) {
	mock := application.NewTestMock(t, "json")

	_, err := run(t, mock, "create", "--email", "admin@evalia.com", "--password", "long-enough")
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err) || errors.IsConflict(err))
}

func TestCreateRequiresFlags(t *testing.T) {
	mock := application.NewTestMock(t, "json")

	_, err := run(t, mock, "create", "--email", "x@example.com")
	assert.ErrorContains(t, err, "password")
}
