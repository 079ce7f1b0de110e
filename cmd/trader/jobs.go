package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"papertrader/internal/models"
	"papertrader/internal/server"
)

type aiCycleCmd struct {
	gate marketGate
}

func (*aiCycleCmd) Name() string     { return "ai-cycle" }
func (*aiCycleCmd) Synopsis() string { return "run one AI recommendation cycle" }
func (*aiCycleCmd) Usage() string {
	return `ai-cycle [-force]

  Asks the recommender for trades against the current portfolio, executes
  the sells and then the buys, and prints the cycle report.
`
}

func (c *aiCycleCmd) SetFlags(f *flag.FlagSet) { c.gate.setFlags(f) }

func (c *aiCycleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runJob(ctx, &c.gate, func(ctx context.Context, app *server.App) (interface{}, error) {
		report, err := app.Automation.RunAITradingCycle(ctx)
		if err != nil {
			return nil, err
		}
		return report, nil
	})
}

type stopLossCmd struct {
	gate marketGate
}

func (*stopLossCmd) Name() string     { return "stop-loss" }
func (*stopLossCmd) Synopsis() string { return "sell positions whose stop-loss was hit" }
func (*stopLossCmd) Usage() string {
	return `stop-loss [-force]

  Refreshes the quote of every holding with a stop-loss and sells the whole
  position when the price is at or below the stop.
`
}

func (c *stopLossCmd) SetFlags(f *flag.FlagSet) { c.gate.setFlags(f) }

func (c *stopLossCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runJob(ctx, &c.gate, func(ctx context.Context, app *server.App) (interface{}, error) {
		report, err := app.Automation.RunStopLossCheck(ctx)
		if err != nil {
			return nil, err
		}
		return report, nil
	})
}

type snapshotCmd struct {
	gate marketGate
	date string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record the daily performance snapshot" }
func (*snapshotCmd) Usage() string {
	return `snapshot [-date YYYY-MM-DD] [-force]

  Values the portfolio and the benchmark and stores them under the given
  date, today in the market time zone by default. Recording the same date
  again replaces the earlier snapshot.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	c.gate.setFlags(f)
	f.StringVar(&c.date, "date", "", "snapshot date (YYYY-MM-DD), defaults to today")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var date time.Time
	if c.date != "" {
		d, err := time.Parse(models.DateLayout, c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q: %v\n", c.date, err)
			return subcommands.ExitUsageError
		}
		date = d
		// An explicit date is a backfill and skips the calendar.
		c.gate.force = true
	}

	return runJob(ctx, &c.gate, func(ctx context.Context, app *server.App) (interface{}, error) {
		if date.IsZero() {
			date = app.Today()
		}
		snapshot, err := app.Performance.RecordDailySnapshot(ctx, date)
		if err != nil {
			return nil, err
		}
		return snapshot, nil
	})
}

type refreshQuotesCmd struct{}

func (*refreshQuotesCmd) Name() string { return "refresh-quotes" }
func (*refreshQuotesCmd) Synopsis() string {
	return "force-refresh quotes for holdings and the benchmark"
}
func (*refreshQuotesCmd) Usage() string {
	return `refresh-quotes

  Bypasses the quote cache and fetches every held symbol plus the benchmark.
`
}

func (*refreshQuotesCmd) SetFlags(*flag.FlagSet) {}

func (*refreshQuotesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runJob(ctx, nil, func(ctx context.Context, app *server.App) (interface{}, error) {
		report, err := app.Automation.RefreshQuotes(ctx)
		if err != nil {
			return nil, err
		}
		return report, nil
	})
}

type verifyCmd struct{}

func (*verifyCmd) Name() string { return "verify" }
func (*verifyCmd) Synopsis() string {
	return "replay the transaction log and compare it with the ledger"
}
func (*verifyCmd) Usage() string {
	return `verify

  Rebuilds cash and holdings from the initial funding and every transaction,
  prints the replay, and exits non-zero when it disagrees with the ledger.
`
}

func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runJob(ctx, nil, func(ctx context.Context, app *server.App) (interface{}, error) {
		report, err := app.Ledger.Verify(ctx)
		if report == nil {
			return nil, err
		}
		return report, err
	})
}
