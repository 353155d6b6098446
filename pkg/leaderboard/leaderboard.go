// Package leaderboard ranks competition standings.
//
// Event leaderboards order users by their best score in the direction of
// the event's primary metric. The global leaderboard aggregates every
// event leaderboard per user.
package leaderboard

import (
	"cmp"
	"slices"
	"strings"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

// Rank builds an event leaderboard from standings. Unscored standings are
// skipped. Ties on score go to the earlier last submission, then to the
// lower user ID, and ranks run 1..n without gaps.
func Rank(dir competitions.Direction, standings []*competitions.Standing) []competitions.LeaderboardEntry {
	scored := make([]*competitions.Standing, 0, len(standings))
	for _, s := range standings {
		if s.Scored() {
			scored = append(scored, s)
		}
	}

	slices.SortStableFunc(scored, func(a, b *competitions.Standing) int {
		switch {
		case dir.Better(*a.BestScore, *b.BestScore):
			return -1
		case dir.Better(*b.BestScore, *a.BestScore):
			return 1
		}
		if c := a.LastSubmission.Compare(b.LastSubmission); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	entries := make([]competitions.LeaderboardEntry, len(scored))
	for i, s := range scored {
		entries[i] = competitions.LeaderboardEntry{
			Rank:             i + 1,
			UserID:           s.UserID,
			UserName:         s.UserName,
			UserAvatar:       s.UserAvatar,
			BestScore:        *s.BestScore,
			SubmissionsCount: s.SubmissionsCount,
			LastSubmission:   s.LastSubmission,
			Metrics:          s.Metrics,
		}
	}
	return entries
}

// Position returns the rank score would take on a leaderboard, counting
// only entries of other users that strictly beat it.
func Position(dir competitions.Direction, entries []competitions.LeaderboardEntry, userID string, score float64) int {
	pos := 1
	for _, e := range entries {
		if e.UserID != userID && dir.Better(e.BestScore, score) {
			pos++
		}
	}
	return pos
}

// Find returns the entry of userID, if ranked.
func Find(entries []competitions.LeaderboardEntry, userID string) (competitions.LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return competitions.LeaderboardEntry{}, false
}

// Order selects the global leaderboard ordering.
type Order string

// Global orderings.
const (
	// OrderParticipation ranks by events entered, then total submissions.
	OrderParticipation Order = "participation"
	// OrderAverageScore ranks by the average of per-event best scores.
	OrderAverageScore Order = "average_score"
)

// ParseOrder parses an ordering name, defaulting to OrderParticipation.
func ParseOrder(s string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderParticipation:
		return OrderParticipation, true
	case OrderAverageScore, "score", "average":
		return OrderAverageScore, true
	}
	return OrderParticipation, false
}

type aggregate struct {
	entry      competitions.GlobalEntry
	totalScore float64
}

// Global aggregates event leaderboards into the cross-event leaderboard.
// boards maps event IDs to their ranked entries.
func Global(boards map[string][]competitions.LeaderboardEntry, order Order) []competitions.GlobalEntry {
	byUser := make(map[string]*aggregate)
	for _, entries := range boards {
		for _, e := range entries {
			agg, ok := byUser[e.UserID]
			if !ok {
				agg = &aggregate{entry: competitions.GlobalEntry{
					UserID:     e.UserID,
					UserName:   e.UserName,
					UserAvatar: e.UserAvatar,
				}}
				byUser[e.UserID] = agg
			}
			agg.totalScore += e.BestScore
			agg.entry.SubmissionsCount += e.SubmissionsCount
			agg.entry.EventsCount++
			if e.LastSubmission.After(agg.entry.LastSubmission) {
				agg.entry.LastSubmission = e.LastSubmission
			}
		}
	}

	out := make([]competitions.GlobalEntry, 0, len(byUser))
	for _, agg := range byUser {
		if agg.entry.EventsCount > 0 {
			agg.entry.AverageScore = agg.totalScore / float64(agg.entry.EventsCount)
		}
		out = append(out, agg.entry)
	}

	slices.SortFunc(out, func(a, b competitions.GlobalEntry) int {
		if order == OrderAverageScore {
			if c := cmp.Compare(b.AverageScore, a.AverageScore); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(b.EventsCount, a.EventsCount); c != 0 {
			return c
		}
		if c := cmp.Compare(b.SubmissionsCount, a.SubmissionsCount); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Search keeps the entries whose user name contains query, ignoring case.
// Ranks are preserved.
func Search[T any](entries []T, query string, name func(T) string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(name(e)), q) {
			out = append(out, e)
		}
	}
	return out
}

// EntryName returns the user name of an event leaderboard entry.
func EntryName(e competitions.LeaderboardEntry) string { return e.UserName }

// GlobalName returns the user name of a global leaderboard entry.
func GlobalName(e competitions.GlobalEntry) string { return e.UserName }
