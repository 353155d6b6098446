package evalia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

func TestEventLeaderboard(t *testing.T) {
	scores := map[string]float64{"alice": 0.81, "bob": 0.93, "carol": 0.81}
	f := newSubmitFixture(t, WithEvaluator(scoreByUser(scores)))
	ctx := context.Background()

	for _, id := range []string{"bob", "carol", "dave"} {
		u := addUser(t, f.c, id, competitions.RoleParticipant)
		_, err := f.c.JoinEvent(ctx, u, f.event.ID, "")
		require.NoError(t, err)
	}
	submit := func(id string) {
		u, err := f.c.store.GetUser(ctx, id)
		require.NoError(t, err)
		_, err = f.c.Submit(ctx, u, f.event.ID, upload("m.pkl", "m"))
		require.NoError(t, err)
		require.NoError(t, f.c.handleJob(ctx, nextJob(t, f.c)))
		f.clk.Advance(time.Minute)
	}
	submit("alice")
	submit("bob")
	submit("carol")

	board, err := f.c.EventLeaderboard(ctx, f.event.Slug, "")
	require.NoError(t, err)
	require.Len(t, board, 3, "members without a score are not ranked")

	var ids []string
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []string{"bob", "alice", "carol"}, ids, "ties go to the earlier submission")

	board, err = f.c.EventLeaderboard(ctx, f.event.ID, "CAR")
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 3, board[0].Rank, "search keeps ranks")

	_, err = f.c.EventLeaderboard(ctx, "missing", "")
	assert.True(t, errors.IsNotFound(err))
}

func TestEventLeaderboardMinimize(t *testing.T) {
	scores := map[string]float64{"alice": 12.5, "bob": 9.75}
	c, _ := newTestClient(t, WithEvaluator(scoreByUser(scores)))
	ctx := context.Background()
	org := addUser(t, c, "org", competitions.RoleOrganizer)
	draft := testDraft("Prévision")
	draft.Metrics = []competitions.Metric{{Name: "rmse", IsPrimary: true, Weight: 1}}
	e := activeEvent(t, c, org, draft)

	for _, id := range []string{"alice", "bob"} {
		u := addUser(t, c, id, competitions.RoleParticipant)
		_, err := c.JoinEvent(ctx, u, e.ID, "")
		require.NoError(t, err)
		_, err = c.Submit(ctx, u, e.ID, upload("m.pkl", "m"))
		require.NoError(t, err)
		require.NoError(t, c.handleJob(ctx, nextJob(t, c)))
	}

	board, err := c.EventLeaderboard(ctx, e.ID, "")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0].UserID)
	assert.InDelta(t, 9.75, board[0].BestScore, 1e-9)

	got, err := c.GetEvent(ctx, nil, e.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9.75, *got.Stats.BestScore, 1e-9)
}

func TestGlobalLeaderboard(t *testing.T) {
	scores := map[string]float64{"alice": 0.6, "bob": 0.95}
	c, _ := newTestClient(t, WithEvaluator(scoreByUser(scores)))
	ctx := context.Background()
	org := addUser(t, c, "org", competitions.RoleOrganizer)
	alice := addUser(t, c, "alice", competitions.RoleParticipant)
	bob := addUser(t, c, "bob", competitions.RoleParticipant)

	first := activeEvent(t, c, org, testDraft("Premier"))
	second := activeEvent(t, c, org, testDraft("Second"))
	enter := func(u *competitions.User, e *competitions.Event) {
		_, err := c.JoinEvent(ctx, u, e.ID, "")
		require.NoError(t, err)
		_, err = c.Submit(ctx, u, e.ID, upload("m.pkl", "m"))
		require.NoError(t, err)
		require.NoError(t, c.handleJob(ctx, nextJob(t, c)))
	}
	enter(alice, first)
	enter(alice, second)
	enter(bob, first)

	board, err := c.GlobalLeaderboard(ctx, leaderboard.OrderParticipation, "")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].UserID)
	assert.Equal(t, 2, board[0].EventsCount)
	assert.InDelta(t, 0.6, board[0].AverageScore, 1e-9)

	board, err = c.GlobalLeaderboard(ctx, leaderboard.OrderAverageScore, "")
	require.NoError(t, err)
	assert.Equal(t, "bob", board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)

	board, err = c.GlobalLeaderboard(ctx, leaderboard.OrderAverageScore, "ali")
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 2, board[0].Rank)

	// Standings in private events stay out of the global board.
	draft := testDraft("Huis clos")
	draft.IsPrivate = true
	draft.AccessCode = "clos"
	secret := activeEvent(t, c, org, draft)
	carol := addUser(t, c, "carol", competitions.RoleParticipant)
	_, err = c.JoinEvent(ctx, carol, secret.ID, "clos")
	require.NoError(t, err)
	_, err = c.Submit(ctx, carol, secret.ID, upload("m.pkl", "m"))
	require.NoError(t, err)
	require.NoError(t, c.handleJob(ctx, nextJob(t, c)))

	board, err = c.GlobalLeaderboard(ctx, leaderboard.OrderParticipation, "")
	require.NoError(t, err)
	require.Len(t, board, 2)
	for _, e := range board {
		assert.NotEqual(t, "carol", e.UserID)
	}
}
