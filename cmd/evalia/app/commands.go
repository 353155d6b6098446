package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/evalia-ai/evalia/cmd/evalia/cmd/events"
	"github.com/evalia-ai/evalia/cmd/evalia/cmd/leaderboard"
	"github.com/evalia-ai/evalia/cmd/evalia/cmd/seed"
	"github.com/evalia-ai/evalia/cmd/evalia/cmd/serve"
	"github.com/evalia-ai/evalia/cmd/evalia/cmd/users"
)

// registerCommands wires every subcommand to the app.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(events.NewCommand(a))
	rootCmd.AddCommand(leaderboard.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(users.NewCommand(a))
	rootCmd.AddCommand(seed.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("evalia %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
