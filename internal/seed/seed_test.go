package seed

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/store/memory"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func plainHash(p string) (string, error) { return "hash:" + p, nil }

func TestLoadDemo(t *testing.T) {
	ds, err := Load()
	require.NoError(t, err)

	assert.Len(t, ds.Events, 6)
	assert.Len(t, ds.Submissions, 4)
	assert.Len(t, ds.Standings["1"], 11)
	assert.Len(t, ds.Standings["2"], 4)

	roles := map[string]competitions.Role{}
	for _, u := range ds.Users {
		roles[u.ID] = u.Role
	}
	assert.Equal(t, competitions.RoleParticipant, roles["1"])
	assert.Equal(t, competitions.RoleOrganizer, roles["2"])
	assert.Equal(t, competitions.RoleAdmin, roles["3"])

	first := ds.Events[0]
	assert.Equal(t, "challenge-classification-images-medicales", first.Slug)
	assert.Equal(t, competitions.StatusActive, first.Status)
	assert.Equal(t, "accuracy", first.PrimaryMetric().Name)
	assert.Equal(t, []string{".pkl", ".h5", ".pt", ".onnx"}, first.Rules.AllowedFormats)
	require.NotNil(t, first.Stats.BestScore)
	assert.InDelta(t, 0.947, *first.Stats.BestScore, 1e-9)
	assert.Equal(t, 2026, first.StartDate.Year())

	assert.Equal(t, competitions.Minimize, ds.Events[1].Direction())
	assert.Nil(t, ds.Events[2].Stats.BestScore)

	for _, s := range ds.Standings["2"] {
		assert.Equal(t, "2", s.EventID)
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ds, err := Load()
	require.NoError(t, err)

	res, err := ds.Apply(ctx, st, plainHash)
	require.NoError(t, err)
	assert.Equal(t, len(ds.Users), res.Users)
	assert.Equal(t, 6, res.Events)
	assert.Equal(t, 4, res.Submissions)
	assert.Equal(t, 15, res.Standings)
	// u10..u22 plus user 1 in events 1 and 2.
	assert.Equal(t, 15, res.Memberships)

	u, hash, err := st.GetUserByEmail(ctx, "ADMIN@evalia.com")
	require.NoError(t, err)
	assert.Equal(t, "3", u.ID)
	assert.Equal(t, "hash:demo-administrateur", hash)

	_, hash, err = st.GetUserByEmail(ctx, "mensah@example.com")
	require.NoError(t, err)
	assert.Empty(t, hash)

	e, err := st.GetEventBySlug(ctx, "prediction-demande-energetique")
	require.NoError(t, err)
	assert.Equal(t, "2", e.ID)

	m, err := st.GetMember(ctx, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, ds.Events[0].RegistrationStart, m.JoinedAt)

	s, err := st.GetStanding(ctx, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, 23, s.SubmissionsCount)

	again, err := ds.Apply(ctx, st, plainHash)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)
}

func TestApplyKeepsChangesToExistingEvents(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	ds, err := Load()
	require.NoError(t, err)
	_, err = ds.Apply(ctx, st, plainHash)
	require.NoError(t, err)

	// User 1 leaves event 1 and one of the seeded submissions is deleted.
	require.NoError(t, st.RemoveMember(ctx, "1", "1"))
	removed := ds.Submissions[0]
	require.NoError(t, st.DeleteSubmission(ctx, removed.ID))

	res, err := ds.Apply(ctx, st, plainHash)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	_, err = st.GetMember(ctx, "1", "1")
	assert.True(t, errors.IsNotFound(err), "a left event is not rejoined on restart")
	_, err = st.GetSubmission(ctx, removed.ID)
	assert.True(t, errors.IsNotFound(err), "deleted submissions are not restored")

	// A new event in the dataset still gets its memberships.
	require.NoError(t, st.DeleteEvent(ctx, "2"))
	res, err = ds.Apply(ctx, st, plainHash)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Events)
	assert.Equal(t, len(ds.Standings["2"]), res.Standings)
	_, err = st.GetMember(ctx, "1", "1")
	assert.True(t, errors.IsNotFound(err))
}

func TestApplyHashError(t *testing.T) {
	ds, err := Load()
	require.NoError(t, err)
	_, err = ds.Apply(context.Background(), memory.New(), func(string) (string, error) {
		return "", errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("users: [unclosed"), "bad.yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("users:\n  - id: x\n    email: x@y.z\n    role: wizard\n"), "role.yaml")
	assert.ErrorContains(t, err, "unknown role")

	_, err = LoadFS(fstest.MapFS{}, "missing.yaml")
	assert.Error(t, err)
}

func TestParseDefaults(t *testing.T) {
	fsys := fstest.MapFS{"s.yaml": {Data: []byte(`
users:
  - {id: a, email: " A@B.C ", name: Ann, role: organizer}
events:
  - {id: e, title: "Détection d'Objets", rules: {allowed_formats: [PKL, .h5]}}
`)}}
	ds, err := LoadFS(fsys, "s.yaml")
	require.NoError(t, err)
	require.Len(t, ds.Users, 1)
	u := ds.Users[0]
	assert.Equal(t, "a@b.c", u.Email)
	assert.Equal(t, competitions.UserActive, u.Status)
	assert.Equal(t, competitions.AvatarURL("Ann"), u.Avatar)
	require.Len(t, ds.Events, 1)
	assert.Equal(t, "detection-d-objets", ds.Events[0].Slug)
	assert.Equal(t, []string{".pkl", ".h5"}, ds.Events[0].Rules.AllowedFormats)
}
