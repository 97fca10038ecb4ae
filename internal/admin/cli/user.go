package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/shared"
	"github.com/spf13/cobra"
)

// getPassword is replaced in tests.
var getPassword = GetPassword

func (a *app) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var name, email string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Long: `Create a user account. Missing --name or --email values are prompted
for; the password is always read from the terminal without echo.

Examples:
  portfolio-admin user add --name Ann --email ann@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.addUser(cmd.Context(), name, email)
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&email, "email", "", "login email")

	cmd.AddCommand(add)
	return cmd
}

func (a *app) addUser(ctx context.Context, name, email string) error {
	var err error
	if name == "" {
		if name, err = GetSimpleText(a.in, "Enter name", a.out); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(a.in, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	return a.withBackend(ctx, func(b *Backend) error {
		u, err := b.Accounts.Register(ctx, name, email, string(password))
		if err != nil {
			if errors.Is(err, common.ErrEmailAlreadyExists) {
				return fmt.Errorf("email %s is already registered", email)
			}
			return err
		}
		fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Email, u.ID)
		return nil
	})
}
