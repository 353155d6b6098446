// Package table converts platform values into rows for CLI tables.
package table

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// EventsToTableData converts events to table format. Wide output adds the
// organizer, dates and counters.
func EventsToTableData(events []*competitions.Event, wide bool) Data {
	headers := []string{"ID", "Title", "Status", "Theme", "Difficulty"}
	if wide {
		headers = append(headers, "Organizer", "Start", "End", "Participants", "Submissions")
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		title := e.Title
		if e.Featured {
			title += " ★"
		}
		if e.IsPrivate {
			title += " (private)"
		}
		row := []string{e.ID, title, Label(string(e.Status)), Label(string(e.Theme)), Label(string(e.Difficulty))}
		if wide {
			row = append(row,
				e.Organizer.Name,
				FormatDate(e.StartDate),
				FormatDate(e.EndDate),
				strconv.Itoa(e.Stats.ParticipantsCount),
				strconv.Itoa(e.Stats.SubmissionsCount),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// LeaderboardToTableData converts an event leaderboard to table format.
func LeaderboardToTableData(entries []competitions.LeaderboardEntry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.UserName,
			FormatScore(e.BestScore),
			strconv.Itoa(e.SubmissionsCount),
			FormatDate(e.LastSubmission),
		})
	}
	return Data{
		Headers:         []string{"Rank", "Participant", "Best Score", "Submissions", "Last Submission"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
}

// GlobalToTableData converts the global leaderboard to table format.
func GlobalToTableData(entries []competitions.GlobalEntry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.UserName,
			strconv.Itoa(e.EventsCount),
			strconv.Itoa(e.SubmissionsCount),
			FormatScore(e.AverageScore),
		})
	}
	return Data{
		Headers:         []string{"Rank", "Participant", "Events", "Submissions", "Average Score"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// UsersToTableData converts accounts to table format.
func UsersToTableData(users []*competitions.User) Data {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, u.Email, Label(string(u.Role)), Label(string(u.Status))})
	}
	return Data{Headers: []string{"ID", "Name", "Email", "Role", "Status"}, Rows: rows}
}

// Label renders an enum value for display: "active" becomes "Active" and
// acronyms stay upper case.
func Label(v string) string {
	if v == string(competitions.ThemeNLP) {
		return "NLP"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(v, "_", " "))
}

// FormatScore renders a score with four decimals and no trailing zeros.
func FormatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatDate renders a date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}
