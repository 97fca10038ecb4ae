package cli

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/spf13/cobra"
)

// Accounts creates user accounts.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
}

// Projects lists stored projects.
type Projects interface {
	List(ctx context.Context) ([]*models.Project, error)
}

// Backend is what the commands operate on. Close releases the connections
// behind it.
type Backend struct {
	Accounts Accounts
	Projects Projects
	Migrate  func(ctx context.Context) error
	Close    func() error
}

// Opener connects to the backend. It runs once per command invocation so
// that help and flag errors never touch the database.
type Opener func(ctx context.Context) (*Backend, error)

type app struct {
	open Opener
	in   *bufio.Reader
	out  io.Writer
}

// NewRootCommand assembles the portfolio-admin command tree. Prompts read
// from in and all output goes to out.
func NewRootCommand(open Opener, in io.Reader, out io.Writer) *cobra.Command {
	a := &app{open: open, in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:   "portfolio-admin",
		Short: "Operator commands for the portfolio site",
		Long: `portfolio-admin works directly against the portfolio database.

It reads the same configuration as the server: PORTFOLIO_* variables, an
optional .env file (-env), an optional JSON file (-c) and the -d DSN flag.`,
		SilenceUsage: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(a.migrateCommand())
	root.AddCommand(a.userCommand())
	root.AddCommand(a.projectCommand())

	return root
}

// withBackend opens the backend, runs fn and closes the backend again.
func (a *app) withBackend(ctx context.Context, fn func(*Backend) error) (err error) {
	if a.open == nil {
		return errors.New("no backend configured")
	}
	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	if b.Close != nil {
		defer func() {
			err = errors.Join(err, b.Close())
		}()
	}
	return fn(b)
}
