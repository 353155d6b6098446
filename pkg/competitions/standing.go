package competitions

import (
	"maps"
	"time"
)

// Standing is a user's persisted position in one event: how many times they
// submitted and the best score they reached so far.
type Standing struct {
	EventID          string             `json:"event_id" yaml:"event_id"`
	UserID           string             `json:"user_id" yaml:"user_id"`
	UserName         string             `json:"user_name" yaml:"user_name"`
	UserAvatar       string             `json:"user_avatar,omitempty" yaml:"user_avatar,omitempty"`
	BestScore        *float64           `json:"best_score,omitempty" yaml:"best_score,omitempty"`
	SubmissionsCount int                `json:"submissions_count" yaml:"submissions_count"`
	LastSubmission   time.Time          `json:"last_submission" yaml:"last_submission"`
	Metrics          map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Scored reports whether the standing has an evaluated score.
func (s *Standing) Scored() bool {
	return s.BestScore != nil
}

// Offer records a new evaluated score and keeps it if it beats the best one.
// It reports whether the best score changed.
func (s *Standing) Offer(score float64, metrics map[string]float64, dir Direction) bool {
	if s.BestScore != nil && !dir.Better(score, *s.BestScore) {
		return false
	}
	s.BestScore = &score
	s.Metrics = maps.Clone(metrics)
	return true
}

// Clone returns a deep copy of the standing.
func (s *Standing) Clone() *Standing {
	if s == nil {
		return nil
	}
	c := *s
	c.Metrics = maps.Clone(s.Metrics)
	if s.BestScore != nil {
		v := *s.BestScore
		c.BestScore = &v
	}
	return &c
}

// LeaderboardEntry is a ranked row of an event leaderboard.
type LeaderboardEntry struct {
	Rank             int                `json:"rank" yaml:"rank"`
	UserID           string             `json:"user_id" yaml:"user_id"`
	UserName         string             `json:"user_name" yaml:"user_name"`
	UserAvatar       string             `json:"user_avatar,omitempty" yaml:"user_avatar,omitempty"`
	BestScore        float64            `json:"best_score" yaml:"best_score"`
	SubmissionsCount int                `json:"submissions_count" yaml:"submissions_count"`
	LastSubmission   time.Time          `json:"last_submission" yaml:"last_submission"`
	Metrics          map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// GlobalEntry is a ranked row of the cross-event leaderboard.
type GlobalEntry struct {
	Rank             int       `json:"rank" yaml:"rank"`
	UserID           string    `json:"user_id" yaml:"user_id"`
	UserName         string    `json:"user_name" yaml:"user_name"`
	UserAvatar       string    `json:"user_avatar,omitempty" yaml:"user_avatar,omitempty"`
	AverageScore     float64   `json:"average_score" yaml:"average_score"`
	SubmissionsCount int       `json:"submissions_count" yaml:"submissions_count"`
	EventsCount      int       `json:"events_count" yaml:"events_count"`
	LastSubmission   time.Time `json:"last_submission" yaml:"last_submission"`
}

// Participant is an organizer-facing row of an event's participant list.
type Participant struct {
	UserID           string     `json:"user_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Avatar           string     `json:"avatar,omitempty"`
	Status           UserStatus `json:"status"`
	JoinedAt         time.Time  `json:"joined_at"`
	SubmissionsCount int        `json:"submissions_count"`
	BestScore        *float64   `json:"best_score,omitempty"`
}

// Membership is the stored fact that a user joined an event.
type Membership struct {
	EventID  string    `json:"event_id" yaml:"event_id"`
	UserID   string    `json:"user_id" yaml:"user_id"`
	JoinedAt time.Time `json:"joined_at" yaml:"joined_at"`
}
