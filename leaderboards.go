package evalia

import (
	"context"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

// Leaderboards ranks participants.
type Leaderboards interface {
	// EventLeaderboard ranks the participants of one event, optionally
	// keeping only user names containing search. It does not check who
	// may see the event; resolve it with GetEvent first.
	EventLeaderboard(ctx context.Context, idOrSlug, search string) ([]competitions.LeaderboardEntry, error)

	// GlobalLeaderboard aggregates the leaderboards of public events.
	GlobalLeaderboard(ctx context.Context, order leaderboard.Order, search string) ([]competitions.GlobalEntry, error)
}

// EventLeaderboard implements Leaderboards.
func (c *client) EventLeaderboard(ctx context.Context, idOrSlug, search string) ([]competitions.LeaderboardEntry, error) {
	e, err := c.lookupEvent(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	standings, err := c.store.ListStandings(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	entries := leaderboard.Rank(e.Direction(), standings)
	return leaderboard.Search(entries, search, leaderboard.EntryName), nil
}

// GlobalLeaderboard implements Leaderboards.
func (c *client) GlobalLeaderboard(ctx context.Context, order leaderboard.Order, search string) ([]competitions.GlobalEntry, error) {
	boards, err := c.boards(ctx)
	if err != nil {
		return nil, err
	}
	entries := leaderboard.Global(boards, order)
	return leaderboard.Search(entries, search, leaderboard.GlobalName), nil
}

// boards ranks every public event that has standings.
func (c *client) boards(ctx context.Context) (map[string][]competitions.LeaderboardEntry, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]competitions.Direction, len(events))
	for _, e := range events {
		if !e.IsPrivate {
			dirs[e.ID] = e.Direction()
		}
	}

	standings, err := c.store.ListStandings(ctx, "")
	if err != nil {
		return nil, err
	}
	byEvent := make(map[string][]*competitions.Standing)
	for _, s := range standings {
		if _, ok := dirs[s.EventID]; ok {
			byEvent[s.EventID] = append(byEvent[s.EventID], s)
		}
	}

	boards := make(map[string][]competitions.LeaderboardEntry, len(byEvent))
	for id, list := range byEvent {
		boards[id] = leaderboard.Rank(dirs[id], list)
	}
	return boards, nil
}
