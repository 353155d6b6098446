package filter

import (
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

func TestParseEventQuery(t *testing.T) {
	yes := true
	no := false

	tests := []struct {
		name     string
		query    string
		expected EventQuery
		wantErr  bool
	}{
		{
			name:     "empty query",
			expected: EventQuery{Page: Page{Limit: DefaultLimit}},
		},
		{
			name:  "all filters",
			query: "status=active&difficulty=Beginner&theme=nlp&search=%20sentiment%20&organizer=u1&featured=true&limit=10&offset=20",
			expected: EventQuery{
				EventFilter: competitions.EventFilter{
					Status:      "active",
					Difficulty:  "Beginner",
					Theme:       "nlp",
					Search:      "sentiment",
					OrganizerID: "u1",
					Featured:    &yes,
				},
				Page: Page{Limit: 10, Offset: 20},
			},
		},
		{
			name:  "all sentinel",
			query: "status=all&theme=ALL&featured=false",
			expected: EventQuery{
				EventFilter: competitions.EventFilter{Status: "all", Theme: "ALL", Featured: &no},
				Page:        Page{Limit: DefaultLimit},
			},
		},
		{name: "unknown status", query: "status=open", wantErr: true},
		{name: "unknown difficulty", query: "difficulty=expert", wantErr: true},
		{name: "unknown theme", query: "theme=audio", wantErr: true},
		{name: "bad featured", query: "featured=maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/events?"+tt.query, nil)
			got, err := ParseEventQuery(req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseSubmissionQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/me/submissions?status=Evaluated", nil)
	q, err := ParseSubmissionQuery(req)
	require.NoError(t, err)
	assert.Equal(t, competitions.SubmissionEvaluated, q.Status)

	req = httptest.NewRequest("GET", "/api/v1/me/submissions?status=done", nil)
	_, err = ParseSubmissionQuery(req)
	assert.True(t, errors.IsValidationError(err))
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Limit: DefaultLimit}},
		{"limit=0&offset=-3", Page{Limit: DefaultLimit}},
		{"limit=9999", Page{Limit: MaxLimit}},
		{"limit=abc&offset=7", Page{Limit: DefaultLimit, Offset: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePage(req))
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Paginate(items, Page{Limit: 2}))
	assert.Equal(t, []int{4, 5}, Paginate(items, Page{Limit: 2, Offset: 3}))
	assert.Equal(t, []int{}, Paginate(items, Page{Limit: 2, Offset: 5}))
	assert.Equal(t, items, Paginate(items, Page{Offset: 0}))
}

// TestPaginateProperty checks that consecutive pages tile the input.
func TestPaginateProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("pages concatenate to the input", prop.ForAll(
		func(items []int, limit int) bool {
			var joined []int
			for off := 0; off < len(items); off += limit {
				joined = append(joined, Paginate(items, Page{Limit: limit, Offset: off})...)
			}
			if len(joined) != len(items) {
				return false
			}
			for i := range items {
				if joined[i] != items[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
