package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"papertrader/internal/config"
	"papertrader/internal/middleware"
)

type tokenCmd struct {
	operator string
	ttl      time.Duration

	out io.Writer
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue an operator bearer token" }
func (*tokenCmd) Usage() string {
	return `token -operator <name> [-ttl 24h]

  Signs a bearer token for the operator API with JWT_SECRET. The operator
  name is recorded as the actor of every trade made with the token.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.operator, "operator", "", "operator name (required)")
	f.DurationVar(&c.ttl, "ttl", 0, "token lifetime, defaults to JWT_EXPIRES_IN")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.operator == "" {
		fmt.Fprintln(os.Stderr, "Error: -operator is required")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	return c.issue(cfg.JWTSecret, cfg.JWTExpirationDur)
}

func (c *tokenCmd) issue(secret string, defaultTTL time.Duration) subcommands.ExitStatus {
	ttl := c.ttl
	if ttl <= 0 {
		ttl = defaultTTL
	}

	token, err := middleware.GenerateOperatorToken(secret, c.operator, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, token)
	return subcommands.ExitSuccess
}
