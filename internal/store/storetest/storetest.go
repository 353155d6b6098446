// Package storetest holds the behaviour every store.Store implementation
// must share. Implementation packages call Run from their tests.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"users", testUsers},
		{"events", testEvents},
		{"event isolation", testEventIsolation},
		{"memberships", testMemberships},
		{"submissions", testSubmissions},
		{"standings", testStandings},
		{"delete event cascades", testDeleteCascade},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// Event returns a minimal valid event for store tests.
func Event(id string, created time.Time) *competitions.Event {
	return &competitions.Event{
		ID:               id,
		Title:            "Event " + id,
		Slug:             "event-" + id,
		DescriptionShort: "desc",
		Status:           competitions.StatusActive,
		Difficulty:       competitions.DifficultyBeginner,
		Theme:            competitions.ThemeRegression,
		Metrics:          []competitions.Metric{{Name: "rmse", IsPrimary: true, Weight: 1}},
		Rules:            competitions.DefaultRules(),
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &competitions.User{ID: "1", Email: "Jean@EvalIA.com", Name: "Jean", Role: competitions.RoleParticipant, Status: competitions.UserActive, CreatedAt: base}
	require.NoError(t, s.CreateUser(ctx, u, "hash-1"))

	err := s.CreateUser(ctx, &competitions.User{ID: "2", Email: "jean@evalia.com", CreatedAt: base}, "x")
	assert.True(t, errors.IsConflict(err), "duplicate email is a conflict, got %v", err)

	got, hash, err := s.GetUserByEmail(ctx, "JEAN@evalia.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, "jean@evalia.com", got.Email)
	assert.Equal(t, "hash-1", hash)

	_, err = s.GetUser(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	updated, err := s.UpdateUser(ctx, "1", func(u *competitions.User) error {
		u.Status = competitions.UserSuspended
		u.Email = "changed@evalia.com"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, competitions.UserSuspended, updated.Status)
	assert.Equal(t, "jean@evalia.com", updated.Email, "email is immutable")

	require.NoError(t, s.CreateUser(ctx, &competitions.User{ID: "0", Email: "early@evalia.com", CreatedAt: base.Add(-time.Hour)}, "h"))
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "0", users[0].ID)

	boom := errors.New("boom")
	_, err = s.UpdateUser(ctx, "1", func(*competitions.User) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func testEvents(t *testing.T, s store.Store) {
	ctx := context.Background()
	e := Event("1", base)
	e.AccessCode = "secret"
	require.NoError(t, s.CreateEvent(ctx, e))
	require.NoError(t, s.CreateEvent(ctx, Event("2", base.Add(time.Hour))))

	dup := Event("3", base)
	dup.Slug = "event-1"
	assert.True(t, errors.IsConflict(s.CreateEvent(ctx, dup)))

	got, err := s.GetEvent(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.AccessCode, "access code survives storage")
	assert.Equal(t, "rmse", got.PrimaryMetric().Name)

	bySlug, err := s.GetEventBySlug(ctx, "event-2")
	require.NoError(t, err)
	assert.Equal(t, "2", bySlug.ID)

	updated, err := s.UpdateEvent(ctx, "1", func(e *competitions.Event) error {
		e.Stats.ParticipantsCount++
		e.Status = competitions.StatusFinished
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stats.ParticipantsCount)

	_, err = s.UpdateEvent(ctx, "2", func(e *competitions.Event) error {
		e.Slug = "event-1"
		return nil
	})
	assert.True(t, errors.IsConflict(err))

	list, err := s.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, competitions.StatusFinished, list[0].Status)

	_, err = s.UpdateEvent(ctx, "nope", func(*competitions.Event) error { return nil })
	assert.True(t, errors.IsNotFound(err))
}

func testEventIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateEvent(ctx, Event("1", base)))

	got, err := s.GetEvent(ctx, "1")
	require.NoError(t, err)
	got.Title = "mutated"
	got.Rules.AllowedFormats[0] = ".exe"

	again, err := s.GetEvent(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Event 1", again.Title)
	assert.Equal(t, ".pkl", again.Rules.AllowedFormats[0])

	_, err = s.UpdateEvent(ctx, "1", func(e *competitions.Event) error {
		e.Title = "rolled back"
		return errors.New("abort")
	})
	require.Error(t, err)
	again, _ = s.GetEvent(ctx, "1")
	assert.Equal(t, "Event 1", again.Title)
}

func testMemberships(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddMember(ctx, competitions.Membership{EventID: "1", UserID: "u1", JoinedAt: base}))
	require.NoError(t, s.AddMember(ctx, competitions.Membership{EventID: "1", UserID: "u2", JoinedAt: base.Add(time.Minute)}))
	require.NoError(t, s.AddMember(ctx, competitions.Membership{EventID: "2", UserID: "u1", JoinedAt: base.Add(2 * time.Minute)}))

	assert.True(t, errors.IsConflict(s.AddMember(ctx, competitions.Membership{EventID: "1", UserID: "u1", JoinedAt: base})))

	m, err := s.GetMember(ctx, "1", "u2")
	require.NoError(t, err)
	assert.True(t, m.JoinedAt.Equal(base.Add(time.Minute)))

	members, err := s.ListMembers(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	mine, err := s.ListMemberships(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "1", mine[0].EventID)

	require.NoError(t, s.RemoveMember(ctx, "1", "u1"))
	assert.True(t, errors.IsNotFound(s.RemoveMember(ctx, "1", "u1")))
	_, err = s.GetMember(ctx, "1", "u1")
	assert.True(t, errors.IsNotFound(err))
}

func testSubmissions(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 4 {
		sub := &competitions.Submission{
			ID:          fmt.Sprintf("s%d", i),
			EventID:     []string{"1", "1", "2", "1"}[i],
			UserID:      []string{"u1", "u2", "u1", "u1"}[i],
			FileName:    "model.pkl",
			FileSize:    1024,
			ArtifactKey: fmt.Sprintf("artifacts/%d", i),
			Status:      competitions.SubmissionPending,
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.CreateSubmission(ctx, sub))
	}

	got, err := s.GetSubmission(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "artifacts/2", got.ArtifactKey)

	list, err := s.ListSubmissions(ctx, competitions.SubmissionQuery{EventID: "1", UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s3", list[0].ID, "newest first")

	score := 0.91
	updated, err := s.UpdateSubmission(ctx, "s0", func(sub *competitions.Submission) error {
		sub.Status = competitions.SubmissionEvaluated
		sub.Score = &score
		sub.Metrics = map[string]float64{"accuracy": 0.91}
		sub.UserID = "hijack"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", updated.UserID)

	evaluated, err := s.ListSubmissions(ctx, competitions.SubmissionQuery{Status: competitions.SubmissionEvaluated})
	require.NoError(t, err)
	require.Len(t, evaluated, 1)
	assert.InDelta(t, 0.91, *evaluated[0].Score, 1e-9)

	all, err := s.ListSubmissions(ctx, competitions.SubmissionQuery{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, s.DeleteSubmission(ctx, "s1"))
	assert.True(t, errors.IsNotFound(s.DeleteSubmission(ctx, "s1")))
}

func testStandings(t *testing.T, s store.Store) {
	ctx := context.Background()
	st, err := s.UpsertStanding(ctx, "1", "u1", func(st *competitions.Standing) error {
		st.UserName = "Jean"
		st.SubmissionsCount++
		st.LastSubmission = base
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.SubmissionsCount)
	assert.False(t, st.Scored())

	st, err = s.UpsertStanding(ctx, "1", "u1", func(st *competitions.Standing) error {
		st.Offer(12.5, map[string]float64{"rmse": 12.5}, competitions.Minimize)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.SubmissionsCount)
	require.True(t, st.Scored())

	_, err = s.UpsertStanding(ctx, "2", "u1", func(st *competitions.Standing) error { return nil })
	require.NoError(t, err)

	list, err := s.ListStandings(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 12.5, *list[0].BestScore, 1e-9)

	all, err := s.ListStandings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.GetStanding(ctx, "1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jean", got.UserName)

	require.NoError(t, s.DeleteStanding(ctx, "1", "u1"))
	assert.True(t, errors.IsNotFound(s.DeleteStanding(ctx, "1", "u1")))
}

func testDeleteCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateEvent(ctx, Event("1", base)))
	require.NoError(t, s.CreateEvent(ctx, Event("2", base)))
	require.NoError(t, s.AddMember(ctx, competitions.Membership{EventID: "1", UserID: "u1", JoinedAt: base}))
	require.NoError(t, s.AddMember(ctx, competitions.Membership{EventID: "2", UserID: "u1", JoinedAt: base}))
	require.NoError(t, s.CreateSubmission(ctx, &competitions.Submission{ID: "s1", EventID: "1", UserID: "u1", Status: competitions.SubmissionPending, SubmittedAt: base}))
	_, err := s.UpsertStanding(ctx, "1", "u1", func(*competitions.Standing) error { return nil })
	require.NoError(t, err)

	require.NoError(t, s.DeleteEvent(ctx, "1"))
	assert.True(t, errors.IsNotFound(s.DeleteEvent(ctx, "1")))

	_, err = s.GetEvent(ctx, "1")
	assert.True(t, errors.IsNotFound(err))
	members, _ := s.ListMemberships(ctx, "u1")
	assert.Len(t, members, 1)
	subs, _ := s.ListSubmissions(ctx, competitions.SubmissionQuery{EventID: "1"})
	assert.Empty(t, subs)
	standings, _ := s.ListStandings(ctx, "1")
	assert.Empty(t, standings)

	// The slug is free again.
	require.NoError(t, s.CreateEvent(ctx, Event("1", base)))
}
