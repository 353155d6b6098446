// Package users provides account management commands.
package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/internal/cmd/emoji"
	"github.com/evalia-ai/evalia/internal/cmd/output"
	"github.com/evalia-ai/evalia/internal/cmd/table"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// NewCommand creates the users command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		GroupID: "management",
		Short:   "Manage accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(NewCreateCommand(app))
	return cmd
}

// NewCreateCommand creates the users create subcommand. It is the only way
// to create organizer and administrator accounts, since self-registration
// is limited to participants.
func NewCreateCommand(app application.Application) *cobra.Command {
	var (
		reg  evalia.Registration
		role string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account of any role",
		Args:  cobra.NoArgs,
		Example: `  evalia users create --email kouassi@ifri.bj --name "Dr. Kouassi" --password '…' --role organisateur
  evalia users create --email ops@evalia.com --password '…' --role admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := competitions.ParseRole(role)
			if err != nil {
				return errors.NewValidationError("role", role, "must be participant, organisateur or administrateur")
			}
			reg.Role = r
			if reg.Name == "" {
				reg.Name = competitions.NameFromEmail(reg.Email)
			}

			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			user, err := client.ProvisionUser(cmd.Context(), reg)
			if err != nil {
				return err
			}

			if format == output.FormatTable || format == output.FormatWide {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Created %s account for %s\n", emoji.Success, user.Role, user.Email)
			}
			return output.Write(cmd.OutOrStdout(), format, table.UsersToTableData([]*competitions.User{user}), user)
		},
	}

	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&reg.Name, "name", "", "Display name (defaults to the email's local part)")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password, 8 to 72 bytes (required)")
	cmd.Flags().StringVar(&role, "role", string(competitions.RoleParticipant), "Role: participant, organisateur, administrateur")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
