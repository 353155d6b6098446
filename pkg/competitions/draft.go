package competitions

import (
	"strings"
	"time"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// EventDraft is the organizer input for creating an event.
type EventDraft struct {
	Title             string      `json:"title"`
	DescriptionShort  string      `json:"description_short"`
	DescriptionFull   string      `json:"description_full"`
	Theme             Theme       `json:"theme"`
	Difficulty        Difficulty  `json:"difficulty"`
	BannerImage       string      `json:"banner_image"`
	RegistrationStart time.Time   `json:"registration_start"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           time.Time   `json:"end_date"`
	ResultsDate       *time.Time  `json:"results_date,omitempty"`
	Metrics           []Metric    `json:"metrics"`
	DatasetInfo       DatasetInfo `json:"dataset_info"`
	Rules             *Rules      `json:"rules,omitempty"`
	MaxParticipants   int         `json:"max_participants"`
	IsPrivate         bool        `json:"is_private"`
	AccessCode        string      `json:"access_code"`
	Prizes            string      `json:"prizes"`
	CustomRules       string      `json:"custom_rules"`
}

// EffectiveRules returns the draft rules with defaults filled in and
// formats normalized.
func (d *EventDraft) EffectiveRules() Rules {
	def := DefaultRules()
	if d.Rules == nil {
		return def
	}
	r := *d.Rules
	if r.MaxSubmissionsPerDay == 0 {
		r.MaxSubmissionsPerDay = def.MaxSubmissionsPerDay
	}
	if r.MaxSubmissionsTotal == 0 {
		r.MaxSubmissionsTotal = def.MaxSubmissionsTotal
	}
	if r.MaxFileSizeMB == 0 {
		r.MaxFileSizeMB = def.MaxFileSizeMB
	}
	if r.TimeoutMinutes == 0 {
		r.TimeoutMinutes = def.TimeoutMinutes
	}
	r.AllowedFormats = NormalizeFormats(r.AllowedFormats)
	return r
}

// Validate reports every problem with the draft at once.
func (d *EventDraft) Validate() error {
	var errs errors.ValidationErrors
	required := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, errors.NewValidationError(field, v, "is required"))
		}
	}
	required("title", d.Title)
	required("description_short", d.DescriptionShort)

	if !d.Theme.Valid() {
		errs = append(errs, errors.NewValidationError("theme", d.Theme, "is required"))
	}
	if !d.Difficulty.Valid() {
		errs = append(errs, errors.NewValidationError("difficulty", d.Difficulty, "is required"))
	}

	dates := []struct {
		field string
		t     time.Time
	}{
		{"registration_start", d.RegistrationStart},
		{"start_date", d.StartDate},
		{"end_date", d.EndDate},
	}
	for _, dt := range dates {
		if dt.t.IsZero() {
			errs = append(errs, errors.NewValidationError(dt.field, nil, "is required"))
		}
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && !d.StartDate.Before(d.EndDate) {
		errs = append(errs, errors.NewValidationError("end_date", d.EndDate, "must be after start_date"))
	}

	primaries := 0
	for _, m := range d.Metrics {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, errors.NewValidationError("metrics", m, "metric name is required"))
		}
		if m.IsPrimary {
			primaries++
		}
	}
	switch {
	case len(d.Metrics) == 0:
		errs = append(errs, errors.NewValidationError("metrics", nil, "at least one metric is required"))
	case primaries != 1:
		errs = append(errs, errors.NewValidationError("metrics", primaries, "exactly one primary metric is required"))
	}

	if err := d.EffectiveRules().Validate(); err != nil {
		if ve, ok := err.(errors.ValidationErrors); ok {
			errs = append(errs, ve...)
		}
	}
	if d.MaxParticipants < 0 {
		errs = append(errs, errors.NewValidationError("max_participants", d.MaxParticipants, "cannot be negative"))
	}
	if d.IsPrivate && strings.TrimSpace(d.AccessCode) == "" {
		errs = append(errs, errors.NewValidationError("access_code", nil, "is required for private events"))
	}
	return errs.ErrOrNil()
}

// Event builds a new upcoming event from the draft.
func (d *EventDraft) Event(id, slug string, organizer Organizer, now time.Time) *Event {
	return &Event{
		ID:                id,
		Title:             strings.TrimSpace(d.Title),
		Slug:              slug,
		DescriptionShort:  strings.TrimSpace(d.DescriptionShort),
		DescriptionFull:   d.DescriptionFull,
		Organizer:         organizer,
		Status:            StatusUpcoming,
		Difficulty:        d.Difficulty,
		Theme:             d.Theme,
		RegistrationStart: d.RegistrationStart,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		ResultsDate:       d.ResultsDate,
		BannerImage:       d.BannerImage,
		Metrics:           d.Metrics,
		DatasetInfo:       d.DatasetInfo,
		Rules:             d.EffectiveRules(),
		Prizes:            d.Prizes,
		CustomRules:       d.CustomRules,
		MaxParticipants:   d.MaxParticipants,
		IsPrivate:         d.IsPrivate,
		AccessCode:        strings.TrimSpace(d.AccessCode),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
