// Package server wires the quote, ledger and service layers together and
// exposes them over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"papertrader/internal/config"
	"papertrader/internal/ledger"
	"papertrader/internal/lock"
	"papertrader/internal/logger"
	"papertrader/internal/market"
	"papertrader/internal/notify"
	"papertrader/internal/provider"
	"papertrader/internal/quote"
	"papertrader/internal/recommender"
	"papertrader/internal/services"
)

// ledgerLockKey is the Redis key serializing ledger writers across processes.
const ledgerLockKey = "papertrader:ledger"

// Options overrides parts of the wiring NewApp would otherwise derive from
// configuration.
type Options struct {
	Providers   []provider.Provider
	Recommender recommender.Recommender
	Notifier    notify.Notifier
	Locker      lock.Locker
	Calendar    market.Calendar
}

// App is the fully wired application shared by the API server and the
// trader CLI.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Ledger      *ledger.Store
	Quotes      *quote.Resolver
	Audit       services.AuditServicer
	Trading     services.TradingServicer
	Performance services.PerformanceServicer
	Automation  services.AutomationServicer
	Calendar    market.Calendar
	Notifier    notify.Notifier

	closers []func() error
}

// NewApp builds every component from cfg over db and funds the ledger on
// first start.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) (*App, error) {
	log := logger.Get()
	app := &App{Config: cfg, DB: db}

	providers := opts.Providers
	if providers == nil {
		var err error
		providers, err = provider.NewChain(provider.Settings{
			Order:              cfg.QuoteProviders,
			AlphaVantageAPIKey: cfg.AlphaVantageAPIKey,
			FinnhubAPIKey:      cfg.FinnhubAPIKey,
			FMPAPIKey:          cfg.FMPAPIKey,
			AlpacaAPIKey:       cfg.AlpacaAPIKey,
			AlpacaAPISecret:    cfg.AlpacaAPISecret,
			AlpacaDataURL:      cfg.AlpacaDataURL,
		}, &http.Client{})
		if err != nil {
			return nil, fmt.Errorf("failed to build quote providers: %w", err)
		}
	}
	app.Quotes = quote.NewResolver(providers, quote.NewCache(quote.NewGormStore(db)), cfg.QuoteTTL, cfg.ProviderTimeout)

	locker := opts.Locker
	if locker == nil && cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		locker = lock.NewRedis(client, ledgerLockKey)
		log.Infow("Cross-process ledger lock enabled", "redis_addr", cfg.RedisAddr)
	}
	var ledgerOpts []ledger.Option
	if locker != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithLocker(locker))
	}
	app.Ledger = ledger.NewStore(db, ledgerOpts...)
	if _, err := app.Ledger.Init(ctx, cfg.InitialCash); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}

	app.Notifier = opts.Notifier
	if app.Notifier == nil {
		if len(cfg.KafkaBrokers) > 0 {
			app.Notifier = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
			log.Infow("Trade events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		} else {
			app.Notifier = notify.Nop{}
		}
	}
	app.closers = append(app.closers, app.Notifier.Close)

	rec := opts.Recommender
	if rec == nil && cfg.GeminiAPIKey != "" {
		gemini, err := recommender.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			app.Close()
			return nil, err
		}
		rec = gemini
	}

	app.Calendar = opts.Calendar
	if app.Calendar == nil {
		if cfg.AlpacaAPIKey != "" && cfg.AlpacaAPISecret != "" {
			app.Calendar = market.NewAlpacaCalendar(cfg.AlpacaAPIKey, cfg.AlpacaAPISecret, cfg.AlpacaTradingURL, cfg.Location())
		} else {
			app.Calendar = market.NewWeekdayCalendar(cfg.Location())
		}
	}

	app.Audit = services.NewAuditService(db)
	app.Trading = services.NewTradingService(db, app.Ledger, app.Quotes, app.Audit, app.Notifier, cfg.Currency)
	app.Performance = services.NewPerformanceService(db, app.Ledger, app.Quotes, app.Audit, cfg.BenchmarkSymbol)
	app.Automation = services.NewAutomationService(app.Ledger, app.Quotes, app.Trading, rec, app.Audit, cfg.BenchmarkSymbol)

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.Infow("Application wired",
		"providers", names,
		"quote_ttl", cfg.QuoteTTL.String(),
		"recommender", rec != nil,
	)
	return app, nil
}

// Close releases external connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Today returns the current date in the market time zone.
func (a *App) Today() time.Time {
	return time.Now().In(a.Config.Location())
}
