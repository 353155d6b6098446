package competitions

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func catalog() []*Event {
	return []*Event{
		{ID: "1", Title: "Prédiction de Churn Client", DescriptionShort: "Prédire le désabonnement", Status: StatusActive, Difficulty: DifficultyIntermediate, Theme: ThemeClassification},
		{ID: "2", Title: "Prix Immobiliers", DescriptionShort: "Estimer les prix des maisons", Status: StatusActive, Difficulty: DifficultyBeginner, Theme: ThemeRegression, Featured: true},
		{ID: "3", Title: "Analyse de Sentiments", DescriptionShort: "Classifier des avis clients", Status: StatusUpcoming, Difficulty: DifficultyAdvanced, Theme: ThemeNLP},
		{ID: "4", Title: "Images Médicales", DescriptionShort: "Détecter des anomalies", Status: StatusFinished, Difficulty: DifficultyAdvanced, Theme: ThemeVision},
	}
}

func ids(events []*Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestEventFilter(t *testing.T) {
	yes := true
	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{"no filter", EventFilter{}, []string{"1", "2", "3", "4"}},
		{"all values", EventFilter{Status: "all", Difficulty: "all", Theme: "all"}, []string{"1", "2", "3", "4"}},
		{"status", EventFilter{Status: "active"}, []string{"1", "2"}},
		{"status and theme", EventFilter{Status: "active", Theme: "regression"}, []string{"2"}},
		{"difficulty", EventFilter{Difficulty: "advanced"}, []string{"3", "4"}},
		{"search title case-insensitive", EventFilter{Search: "IMMOBILIERS"}, []string{"2"}},
		{"search description", EventFilter{Search: "clients"}, []string{"3"}},
		{"search ignores surrounding spaces", EventFilter{Search: "  immobiliers "}, []string{"2"}},
		{"blank search matches everything", EventFilter{Search: "   "}, []string{"1", "2", "3", "4"}},
		{"search and status", EventFilter{Search: "clients", Status: "active"}, []string{}},
		{"featured", EventFilter{Featured: &yes}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(catalog())))
		})
	}
}

func TestSubmissionQuery(t *testing.T) {
	s := &Submission{EventID: "1", UserID: "u1", Status: SubmissionEvaluated}
	assert.True(t, SubmissionQuery{}.Match(s))
	assert.True(t, SubmissionQuery{EventID: "1", Status: "all"}.Match(s))
	assert.False(t, SubmissionQuery{UserID: "u2"}.Match(s))
	assert.False(t, SubmissionQuery{Status: SubmissionPending}.Match(s))
}

// The filter result is exactly the conjunction of its predicates.
func TestEventFilterConjunctionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := gen.OneConstOf("", "all", "upcoming", "active", "finished", "archived")
	difficulties := gen.OneConstOf("", "all", "beginner", "intermediate", "advanced")
	themes := gen.OneConstOf("", "all", "classification", "regression", "nlp", "vision", "other")
	searches := gen.OneConstOf("", "prix", "CLIENT", "images", "zzz", "de")

	properties.Property("match equals conjunction of predicates", prop.ForAll(
		func(status, difficulty, theme, search string) bool {
			f := EventFilter{Status: status, Difficulty: difficulty, Theme: theme, Search: search}
			for _, e := range catalog() {
				want := (status == "" || status == "all" || string(e.Status) == status) &&
					(difficulty == "" || difficulty == "all" || string(e.Difficulty) == difficulty) &&
					(theme == "" || theme == "all" || string(e.Theme) == theme) &&
					(search == "" ||
						strings.Contains(strings.ToLower(e.Title), strings.ToLower(search)) ||
						strings.Contains(strings.ToLower(e.DescriptionShort), strings.ToLower(search)))
				if f.Match(e) != want {
					return false
				}
			}
			return true
		},
		statuses, difficulties, themes, searches,
	))

	properties.Property("adding a predicate never widens the result", prop.ForAll(
		func(status, theme string) bool {
			wide := EventFilter{Status: status}.Apply(catalog())
			narrow := EventFilter{Status: status, Theme: theme}.Apply(catalog())
			return len(narrow) <= len(wide)
		},
		statuses, themes,
	))

	properties.TestingRun(t)
}

func TestEventFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  EventFilter
		wantErr string
	}{
		{name: "empty", filter: EventFilter{}},
		{name: "all values", filter: EventFilter{Status: "ALL", Difficulty: "all", Theme: "All"}},
		{name: "case insensitive", filter: EventFilter{Status: "Active", Theme: "NLP"}},
		{name: "unknown status", filter: EventFilter{Status: "completed"}, wantErr: "status"},
		{name: "unknown difficulty", filter: EventFilter{Difficulty: "expert"}, wantErr: "difficulty"},
		{name: "unknown theme", filter: EventFilter{Theme: "computer_vision"}, wantErr: "theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
