package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/portfolio/internal/admin/cli"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server"
	"github.com/dmitrijs2005/portfolio/internal/server/config"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

func open(ctx context.Context) (*cli.Backend, error) {
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	db, rm, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return &cli.Backend{
		Accounts: services.NewUserService(db, rm, logger),
		// Listing never touches the media host.
		Projects: services.NewProjectService(db, rm, nil, logger),
		Migrate: func(ctx context.Context) error {
			return rm.RunMigrations(ctx, db)
		},
		Close: db.Close,
	}, nil
}

func main() {
	root := cli.NewRootCommand(open, os.Stdin, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
