package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"

	"papertrader/internal/market"
	"papertrader/internal/middleware"
)

func TestMarketGate(t *testing.T) {
	cal := market.NewWeekdayCalendar(time.UTC)
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		force bool
		at    time.Time
		want  bool
	}{
		{"weekday_runs", false, monday, true},
		{"weekend_skips", false, saturday, false},
		{"force_overrides_weekend", true, saturday, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &marketGate{force: tt.force}
			got, err := g.open(context.Background(), cal, tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMarketGate_Flag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var g marketGate
	g.setFlags(fs)

	if err := fs.Parse([]string{"-force"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !g.force {
		t.Error("expected -force to set the override")
	}
}

func TestTokenCmd(t *testing.T) {
	t.Run("issues_a_verifiable_token", func(t *testing.T) {
		var out bytes.Buffer
		c := &tokenCmd{operator: "alice", out: &out}

		if status := c.issue("cli-secret", time.Hour); status != subcommands.ExitSuccess {
			t.Fatalf("expected success, got %v", status)
		}

		claims, err := middleware.ParseOperatorToken("cli-secret", strings.TrimSpace(out.String()))
		if err != nil {
			t.Fatalf("token did not parse: %v", err)
		}
		if claims.Operator != "alice" {
			t.Errorf("expected operator alice, got %s", claims.Operator)
		}
	})

	t.Run("requires_operator", func(t *testing.T) {
		c := &tokenCmd{}
		if status := c.Execute(context.Background(), nil); status != subcommands.ExitUsageError {
			t.Errorf("expected usage error, got %v", status)
		}
	})
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"ai-cycle", "stop-loss", "snapshot", "refresh-quotes", "verify", "token"}
	seen := make(map[string]bool)
	for _, c := range commands {
		seen[c.Name()] = true
	}
	for _, name := range want {
		if !seen[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}
