package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"papertrader/internal/config"
	"papertrader/internal/database"
	"papertrader/internal/logger"
	"papertrader/internal/market"
	"papertrader/internal/server"
)

var commands = []subcommands.Command{
	&aiCycleCmd{},
	&stopLossCmd{},
	&snapshotCmd{},
	&refreshQuotesCmd{},
	&verifyCmd{},
	&tokenCmd{},
}

// openApp loads configuration, migrates the database and wires the
// application. The returned func closes everything it opened.
func openApp(ctx context.Context) (*server.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		_ = dbManager.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app, err := server.NewApp(ctx, cfg, dbManager.DB(), server.Options{})
	if err != nil {
		_ = dbManager.Close()
		return nil, nil, err
	}

	return app, func() {
		if err := app.Close(); err != nil {
			logger.Get().Warnw("Failed to close application", "error", err)
		}
		_ = dbManager.Close()
	}, nil
}

// marketGate lets a job proceed only on trading days unless forced.
type marketGate struct {
	force bool
}

func (g *marketGate) setFlags(f *flag.FlagSet) {
	f.BoolVar(&g.force, "force", false, "run even when the market is closed today")
}

// open reports whether the job should run at t according to cal.
func (g *marketGate) open(ctx context.Context, cal market.Calendar, t time.Time) (bool, error) {
	if g.force {
		return true, nil
	}
	return cal.IsTradingDay(ctx, t)
}

// runJob opens the app, checks the calendar when gate is non-nil and
// prints job's result as JSON.
func runJob(ctx context.Context, gate *marketGate, job func(context.Context, *server.App) (interface{}, error)) subcommands.ExitStatus {
	log := logger.Get()

	app, closeApp, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeApp()

	if gate != nil {
		open, err := gate.open(ctx, app.Calendar, app.Today())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking market calendar: %v\n", err)
			return subcommands.ExitFailure
		}
		if !open {
			log.Infow("Market closed today, skipping", "date", app.Today().Format("2006-01-02"))
			return subcommands.ExitSuccess
		}
	}

	result, err := job(ctx, app)
	if result != nil {
		if werr := writeJSON(os.Stdout, result); werr != nil {
			fmt.Fprintf(os.Stderr, "Error writing result: %v\n", werr)
			return subcommands.ExitFailure
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
