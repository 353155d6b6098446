// Package events provides the events command.
package events

import (
	"github.com/spf13/cobra"

	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/internal/cmd/output"
	"github.com/evalia-ai/evalia/internal/cmd/table"
	"github.com/evalia-ai/evalia/pkg/competitions"
)

// NewCommand creates the events command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		GroupID: "core",
		Short:   "Browse competition events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(NewListCommand(app))
	return cmd
}

// NewListCommand creates the events list subcommand.
func NewListCommand(app application.Application) *cobra.Command {
	var filter competitions.EventFilter

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List public events",
		Args:    cobra.NoArgs,
		Example: `  evalia events list
  evalia events list --status active --theme nlp
  evalia events list --search churn -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}

			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			events, err := client.ListEvents(cmd.Context(), nil, filter)
			if err != nil {
				return err
			}

			app.Logger().Debug().Int("count", len(events)).Msg("Events listed")

			rows := table.EventsToTableData(events, format == output.FormatWide)
			return output.Write(cmd.OutOrStdout(), format, rows, events)
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "Filter by status: upcoming, active, finished, archived")
	cmd.Flags().StringVar(&filter.Difficulty, "difficulty", "", "Filter by difficulty: beginner, intermediate, advanced")
	cmd.Flags().StringVar(&filter.Theme, "theme", "", "Filter by theme: classification, regression, nlp, vision, other")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Search titles and short descriptions")

	return cmd
}
