// Package leaderboard provides the leaderboard command.
package leaderboard

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/internal/cmd/output"
	"github.com/evalia-ai/evalia/internal/cmd/report"
	"github.com/evalia-ai/evalia/internal/cmd/table"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

// NewCommand creates the leaderboard command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		order  string
		search string
	)

	cmd := &cobra.Command{
		Use:     "leaderboard [event-id]",
		Aliases: []string{"lb", "ranking"},
		GroupID: "core",
		Short:   "Show an event leaderboard or the global ranking",
		Long: `Show the leaderboard of one event, addressed by ID or slug, or the
global ranking across events when no event is given.

The global ranking orders participants by events entered then total
submissions (--order participation), or by their average best score
(--order average_score).`,
		Args: cobra.MaximumNArgs(1),
		Example: `  evalia leaderboard
  evalia leaderboard --order average_score
  evalia leaderboard prediction-demande-energetique --search diallo
  evalia leaderboard prediction-demande-energetique -o markdown > RESULTS.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showEvent(cmd.Context(), cmd.OutOrStdout(), client, format, args[0], search)
			}

			o, ok := leaderboard.ParseOrder(order)
			if !ok {
				return errors.NewValidationError("order", order, "must be participation or average_score")
			}
			return showGlobal(cmd.Context(), cmd.OutOrStdout(), client, format, o, search)
		},
	}

	cmd.Flags().StringVar(&order, "order", string(leaderboard.OrderParticipation), "Global ordering: participation, average_score")
	cmd.Flags().StringVar(&search, "search", "", "Only show participants whose name contains this text")

	return cmd
}

func showEvent(ctx context.Context, w io.Writer, client evalia.Client, format output.Format, idOrSlug, search string) error {
	event, err := client.GetEvent(ctx, nil, idOrSlug)
	if err != nil {
		return err
	}
	entries, err := client.EventLeaderboard(ctx, event.ID, search)
	if err != nil {
		return err
	}
	if format == output.FormatMarkdown {
		return report.EventLeaderboard(w, event, entries, time.Now())
	}
	return output.Write(w, format, table.LeaderboardToTableData(entries), entries)
}

func showGlobal(ctx context.Context, w io.Writer, client evalia.Client, format output.Format, order leaderboard.Order, search string) error {
	entries, err := client.GlobalLeaderboard(ctx, order, search)
	if err != nil {
		return err
	}
	if format == output.FormatMarkdown {
		return report.GlobalLeaderboard(w, entries, order, time.Now())
	}
	return output.Write(w, format, table.GlobalToTableData(entries), entries)
}
