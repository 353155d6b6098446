// Package report renders leaderboards as markdown documents, for pasting
// into announcements or repository READMEs.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/evalia-ai/evalia/internal/cmd/table"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

// EventLeaderboard writes the leaderboard of e.
func EventLeaderboard(w io.Writer, e *competitions.Event, entries []competitions.LeaderboardEntry, now time.Time) error {
	doc := md.NewMarkdown(w)
	doc.H1(e.Title)

	metric := e.PrimaryMetric()
	order := "higher is better"
	if e.Direction() == competitions.Minimize {
		order = "lower is better"
	}
	doc.PlainText(fmt.Sprintf("%s · %s · %s (%s)", e.Status, e.Difficulty, md.Bold(metric.Name), order)).LF()
	doc.PlainText(fmt.Sprintf("%d participants, %d submissions.", e.Stats.ParticipantsCount, e.Stats.SubmissionsCount)).LF()

	if len(entries) == 0 {
		doc.PlainText(md.Italic("No evaluated submissions yet.")).LF()
	} else {
		rows := make([][]string, 0, len(entries))
		for _, en := range entries {
			rows = append(rows, []string{
				medal(en.Rank),
				en.UserName,
				table.FormatScore(en.BestScore),
				strconv.Itoa(en.SubmissionsCount),
				table.FormatDate(en.LastSubmission),
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"Rank", "Participant", "Best score", "Submissions", "Last submission"},
			Rows:   rows,
		})
	}

	footer(doc, now)
	return doc.Build()
}

// GlobalLeaderboard writes the cross-event leaderboard.
func GlobalLeaderboard(w io.Writer, entries []competitions.GlobalEntry, order leaderboard.Order, now time.Time) error {
	doc := md.NewMarkdown(w)
	doc.H1("Classement général")

	switch order {
	case leaderboard.OrderAverageScore:
		doc.PlainText("Ranked by average best score across events.").LF()
	default:
		doc.PlainText("Ranked by events entered, then by submissions.").LF()
	}

	rows := make([][]string, 0, len(entries))
	for _, en := range entries {
		rows = append(rows, []string{
			medal(en.Rank),
			en.UserName,
			strconv.Itoa(en.EventsCount),
			strconv.Itoa(en.SubmissionsCount),
			table.FormatScore(en.AverageScore),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Rank", "Participant", "Events", "Submissions", "Average score"},
		Rows:   rows,
	})

	footer(doc, now)
	return doc.Build()
}

func footer(doc *md.Markdown, now time.Time) {
	doc.HorizontalRule()
	doc.PlainText(md.Italic(fmt.Sprintf("Generated by EvalIA on %s", now.UTC().Format("2006-01-02 15:04 MST"))))
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return strconv.Itoa(rank)
}
