package competitions

import (
	"slices"
	"strings"
	"time"
)

// EventStatus is the lifecycle state of a competition.
type EventStatus string

// Event lifecycle states, in order.
const (
	StatusUpcoming EventStatus = "upcoming"
	StatusActive   EventStatus = "active"
	StatusFinished EventStatus = "finished"
	StatusArchived EventStatus = "archived"
)

var statusOrder = []EventStatus{StatusUpcoming, StatusActive, StatusFinished, StatusArchived}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	return slices.Contains(statusOrder, s)
}

// CanTransition reports whether an event may move from s to next.
// Statuses only move forward one step, except that any event may be archived.
func (s EventStatus) CanTransition(next EventStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if next == StatusArchived {
		return true
	}
	return slices.Index(statusOrder, next) == slices.Index(statusOrder, s)+1
}

// Difficulty is the advertised difficulty of an event.
type Difficulty string

// Difficulty levels.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Theme is the machine-learning task family of an event.
type Theme string

// Event themes.
const (
	ThemeClassification Theme = "classification"
	ThemeRegression     Theme = "regression"
	ThemeNLP            Theme = "nlp"
	ThemeVision         Theme = "vision"
	ThemeOther          Theme = "other"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeClassification, ThemeRegression, ThemeNLP, ThemeVision, ThemeOther:
		return true
	}
	return false
}

// Organizer is the public summary of the user running an event.
type Organizer struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// Metric is an evaluation metric of an event.
type Metric struct {
	Name      string  `json:"name" yaml:"name"`
	IsPrimary bool    `json:"is_primary" yaml:"is_primary"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// Direction tells whether higher or lower metric values rank first.
type Direction int

// Ranking directions.
const (
	Maximize Direction = iota
	Minimize
)

// Better reports whether score a ranks ahead of score b.
func (d Direction) Better(a, b float64) bool {
	if d == Minimize {
		return a < b
	}
	return a > b
}

// String returns "max" or "min".
func (d Direction) String() string {
	if d == Minimize {
		return "min"
	}
	return "max"
}

// errorMetrics are loss-style metrics where lower is better.
var errorMetrics = map[string]bool{
	"rmse": true, "mae": true, "mse": true, "mape": true, "log_loss": true, "logloss": true,
}

// MetricDirection returns the ranking direction of a metric by name.
func MetricDirection(name string) Direction {
	if errorMetrics[strings.ToLower(strings.TrimSpace(name))] {
		return Minimize
	}
	return Maximize
}

// DatasetInfo describes the event dataset.
type DatasetInfo struct {
	TrainSize string `json:"train_size" yaml:"train_size"`
	TestSize  string `json:"test_size" yaml:"test_size"`
	Features  string `json:"features" yaml:"features"`
	Target    string `json:"target" yaml:"target"`
}

// Stats are the aggregate counters of an event.
type Stats struct {
	ParticipantsCount int      `json:"participants_count" yaml:"participants_count"`
	SubmissionsCount  int      `json:"submissions_count" yaml:"submissions_count"`
	BestScore         *float64 `json:"best_score,omitempty" yaml:"best_score,omitempty"`
}

// Participation is the viewer-specific participation marker of an event.
// It is computed per request and never stored on the event.
type Participation struct {
	IsJoined           bool     `json:"is_joined"`
	MyBestScore        *float64 `json:"my_best_score,omitempty"`
	MyRank             *int     `json:"my_rank,omitempty"`
	MySubmissionsCount int      `json:"my_submissions_count"`
}

// Event is a competition.
type Event struct {
	// Identity
	ID               string    `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Slug             string    `json:"slug" yaml:"slug"`
	DescriptionShort string    `json:"description_short" yaml:"description_short"`
	DescriptionFull  string    `json:"description_full,omitempty" yaml:"description_full,omitempty"`
	Organizer        Organizer `json:"organizer" yaml:"organizer"`

	// Classification
	Status     EventStatus `json:"status" yaml:"status"`
	Difficulty Difficulty  `json:"difficulty" yaml:"difficulty"`
	Theme      Theme       `json:"theme" yaml:"theme"`
	Featured   bool        `json:"featured" yaml:"featured"`

	// Schedule
	RegistrationStart time.Time  `json:"registration_start" yaml:"registration_start"`
	StartDate         time.Time  `json:"start_date" yaml:"start_date"`
	EndDate           time.Time  `json:"end_date" yaml:"end_date"`
	ResultsDate       *time.Time `json:"results_date,omitempty" yaml:"results_date,omitempty"`

	// Content
	BannerImage string      `json:"banner_image,omitempty" yaml:"banner_image,omitempty"`
	Metrics     []Metric    `json:"metrics" yaml:"metrics"`
	DatasetInfo DatasetInfo `json:"dataset_info" yaml:"dataset_info"`
	Rules       Rules       `json:"rules" yaml:"rules"`
	Prizes      string      `json:"prizes,omitempty" yaml:"prizes,omitempty"`
	CustomRules string      `json:"custom_rules,omitempty" yaml:"custom_rules,omitempty"`

	// Access
	MaxParticipants int    `json:"max_participants,omitempty" yaml:"max_participants,omitempty"` // 0 means unlimited
	IsPrivate       bool   `json:"is_private" yaml:"is_private"`
	AccessCode      string `json:"-" yaml:"access_code,omitempty"`

	Stats           Stats          `json:"stats" yaml:"stats"`
	MyParticipation *Participation `json:"my_participation,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// PrimaryMetric returns the primary metric, falling back to the first one.
func (e *Event) PrimaryMetric() Metric {
	for _, m := range e.Metrics {
		if m.IsPrimary {
			return m
		}
	}
	if len(e.Metrics) > 0 {
		return e.Metrics[0]
	}
	return Metric{Name: "score", IsPrimary: true, Weight: 1}
}

// Direction returns the ranking direction of the primary metric.
func (e *Event) Direction() Direction {
	return MetricDirection(e.PrimaryMetric().Name)
}

// AcceptsSubmissions reports whether the event currently accepts submissions.
func (e *Event) AcceptsSubmissions() bool {
	return e.Status == StatusActive
}

// Joinable reports whether participants may still join.
func (e *Event) Joinable() bool {
	return e.Status == StatusUpcoming || e.Status == StatusActive
}

// OwnedBy reports whether u organizes the event.
func (e *Event) OwnedBy(u *User) bool {
	return u != nil && e.Organizer.ID == u.ID
}

// CanManage reports whether u may manage the event: its organizer or an admin.
func (e *Event) CanManage(u *User) bool {
	return e.OwnedBy(u) || u.IsAdmin()
}

// Full reports whether the participant cap is reached.
func (e *Event) Full() bool {
	return e.MaxParticipants > 0 && e.Stats.ParticipantsCount >= e.MaxParticipants
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Metrics = slices.Clone(e.Metrics)
	c.Rules.AllowedFormats = slices.Clone(e.Rules.AllowedFormats)
	if e.ResultsDate != nil {
		t := *e.ResultsDate
		c.ResultsDate = &t
	}
	if e.Stats.BestScore != nil {
		s := *e.Stats.BestScore
		c.Stats.BestScore = &s
	}
	if e.MyParticipation != nil {
		p := *e.MyParticipation
		c.MyParticipation = &p
	}
	return &c
}
