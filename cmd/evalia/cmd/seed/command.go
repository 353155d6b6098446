// Package seed provides the seed command.
package seed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/internal/cmd/emoji"
	"github.com/evalia-ai/evalia/internal/seed"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// NewCommand creates the seed command.
func NewCommand(app application.Application) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:     "seed",
		GroupID: "management",
		Short:   "Migrate the database and load demo data",
		Long: `Seed applies the schema to the configured database and loads the
embedded demo dataset: the three demo accounts, six events, their
leaderboards and a few submissions. Records that already exist are left
untouched, so seeding twice is harmless.

Use --file to load another dataset with the same YAML layout.`,
		Args: cobra.NoArgs,
		Example: `  EVALIA_DATABASE_DRIVER=sqlite EVALIA_DATABASE_DSN=evalia.db evalia seed
  evalia seed --file fixtures/hackathon.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := app.Logger()

			ds, err := load(file)
			if err != nil {
				return err
			}

			if driver := app.StoreDriver(); driver == "" || driver == "memory" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s database_driver is memory: the data lives only as long as this command\n", emoji.Warning)
			}

			st, err := app.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					logger.Warn().Err(err).Msg("Closing store")
				}
			}()

			res, err := ds.Apply(cmd.Context(), st, auth.HashPassword)
			if err != nil {
				return errors.WrapResource("apply", "seed", file, err)
			}

			logger.Info().
				Int("users", res.Users).
				Int("events", res.Events).
				Int("memberships", res.Memberships).
				Int("submissions", res.Submissions).
				Int("standings", res.Standings).
				Msg("Seed applied")

			fmt.Fprintf(cmd.OutOrStdout(), "%s Seeded %d users, %d events, %d memberships, %d submissions, %d standings\n",
				emoji.Success, res.Users, res.Events, res.Memberships, res.Submissions, res.Standings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML dataset to load instead of the embedded demo")

	return cmd
}

func load(file string) (*seed.Dataset, error) {
	if file == "" {
		return seed.Load()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WrapIO("read", file, err)
	}
	return seed.Parse(data, filepath.Base(file))
}
