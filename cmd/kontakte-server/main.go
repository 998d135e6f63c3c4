// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// kontakte-server serves the import endpoints and stores the imported
// contacts in SQLite.
//
// On first start it seeds the database with the template catalog
// (server.templates_file, or the built-in Person and Unternehmen
// templates). Uploaded files are parsed in the background and kept in
// memory until server.task_ttl after they finish.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/kontakte/lib/cli"
	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importserver"
	"github.com/bureau-foundation/kontakte/lib/importtask"
	"github.com/bureau-foundation/kontakte/lib/kontaktstore"
	"github.com/bureau-foundation/kontakte/lib/service"
	"github.com/bureau-foundation/kontakte/lib/version"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

func main() {
	os.Exit(cli.Exit(run(os.Args[1:]), func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format, args...)
	}))
}

func run(args []string) error {
	var (
		configPath    string
		address       string
		database      string
		templatesFile string
		verbose       bool
		showVersion   bool
	)
	flagSet := pflag.NewFlagSet("kontakte-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to kontakte.yaml (default: $KONTAKTE_CONFIG, else built-in defaults)")
	flagSet.StringVar(&address, "address", "", "listen address (overrides server.address)")
	flagSet.StringVar(&database, "database", "", "SQLite database path (overrides server.database)")
	flagSet.StringVar(&templatesFile, "templates-file", "", "JSONC template catalog used to seed an empty database")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug records")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return cli.Validation("%w", err)
	}
	if showVersion {
		fmt.Printf("kontakte-server %s\n", version.Info())
		return nil
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return cli.Validation("loading configuration: %w", err)
	}
	if address != "" {
		cfg.Server.Address = address
	}
	if database != "" {
		cfg.Server.Database = database
	}
	if templatesFile != "" {
		cfg.Server.TemplatesFile = templatesFile
	}
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return cli.Internal("%w", err)
	}

	logger := cli.NewCommandLogger(verbose).With("service", "kontakte-server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg.Server, logger, nil)
}

// serve runs the server until ctx is cancelled. A cancelled context is
// a clean shutdown. When listening is not nil it receives the bound
// address.
func serve(ctx context.Context, serverConfig config.ServerConfig, logger *slog.Logger, listening chan<- net.Addr) error {
	catalog := vorlage.Standard()
	if serverConfig.TemplatesFile != "" {
		loaded, err := vorlage.LoadCatalog(serverConfig.TemplatesFile)
		if err != nil {
			return cli.Validation("%w", err)
		}
		catalog = loaded
	}

	store, err := kontaktstore.Open(ctx, kontaktstore.Config{
		Path:   serverConfig.Database,
		Logger: logger,
	})
	if err != nil {
		return cli.Internal("opening database: %w", err)
	}
	defer store.Close()

	seeded, err := store.SeedCatalog(ctx, catalog)
	if err != nil {
		return cli.Internal("seeding templates: %w", err)
	}
	if seeded {
		logger.Info("seeded template catalog", "templates", len(catalog.Templates))
	}

	tracker := importtask.New(importtask.Config{
		Logger:  logger,
		Workers: serverConfig.Workers,
		TTL:     serverConfig.TaskTTL,
	})
	defer tracker.Close()

	handler, err := importserver.New(importserver.Config{
		Tracker:       tracker,
		Store:         store,
		Logger:        logger,
		MaxUploadSize: serverConfig.MaxUploadSize,
		RedirectURL:   serverConfig.RedirectURL,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: serverConfig.Address,
		Handler: service.LogRequests(handler, logger),
		Logger:  logger,
	})

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		return tracker.Run(groupContext, serverConfig.SweepInterval)
	})
	group.Go(func() error {
		return httpServer.Serve(groupContext)
	})
	group.Go(func() error {
		select {
		case <-httpServer.Ready():
			logger.Info("kontakte-server ready",
				"address", httpServer.Addr().String(),
				"database", serverConfig.Database,
				"version", version.Info(),
			)
			if listening != nil {
				listening <- httpServer.Addr()
			}
		case <-groupContext.Done():
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.Internal("%w", err)
	}
	logger.Info("kontakte-server stopped")
	return nil
}
