// Package main is the entry point for the surebet arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	arbitrageApp "github.com/mvickers/surebet/business/arbitrage/app"
	arbitrageDomain "github.com/mvickers/surebet/business/arbitrage/domain"
	arbitrageInfra "github.com/mvickers/surebet/business/arbitrage/infra"
	executionApp "github.com/mvickers/surebet/business/execution/app"
	executionDomain "github.com/mvickers/surebet/business/execution/domain"
	"github.com/mvickers/surebet/business/execution/infra/postgres"
	oddsApp "github.com/mvickers/surebet/business/odds/app"
	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
	"github.com/mvickers/surebet/business/odds/infra/exchangefeed"
	"github.com/mvickers/surebet/business/odds/infra/restbook"
	"github.com/mvickers/surebet/internal/config"
	"github.com/mvickers/surebet/internal/health"
	"github.com/mvickers/surebet/internal/locker"
	"github.com/mvickers/surebet/internal/logger"
	"github.com/mvickers/surebet/internal/metrics"
	"github.com/mvickers/surebet/internal/notify"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("surebet %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log *logger.Logger
	if tuiMode {
		// In TUI mode the dashboard owns the terminal; suppress logs.
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting surebet engine",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Observability
	var inst *metrics.Instruments
	if cfg.Telemetry.Enabled {
		provider, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()

		if inst, err = metrics.NewInstruments(); err != nil {
			return fmt.Errorf("failed to register instruments: %w", err)
		}

		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
		log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)
	}

	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err.Error())
	} else {
		log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)
	}
	defer healthServer.Stop(context.Background())

	// Operator notifications
	var senders []notify.Sender
	if cfg.Notify.Enabled() {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
		log.Info(ctx, "telegram notifications enabled")
	}
	notifier := notify.New(senders, cfg.Notify.Events, log)

	// Event claim store: Redis when configured, in-process otherwise.
	var locks locker.Locker
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		locks = locker.NewRedis(rdb)
		healthServer.RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		log.Info(ctx, "using redis event claims", "addr", cfg.Redis.Addr)
	} else {
		locks = locker.NewMemory()
	}

	// Audit store
	var audit executionApp.AuditStore
	if cfg.Postgres.Enabled() {
		pg, err := postgres.New(ctx, postgres.ClientConfig{DSN: cfg.Postgres.DSN})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		audit = postgres.NewResultStore(pg.Pool())
		healthServer.RegisterCheck("postgres", func(ctx context.Context) (bool, string) {
			if err := pg.Pool().Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		log.Info(ctx, "execution audit store enabled")
	}

	sports := make([]oddsDomain.Sport, len(cfg.Scan.Sports))
	for i, s := range cfg.Scan.Sports {
		sports[i] = oddsDomain.Sport(s)
	}

	// Provider adapters. REST books fetch and place; exchange feeds stream
	// quotes and are fetch-only.
	var fetchers []oddsApp.QuoteFetcher
	var feeds []*exchangefeed.Feed
	var placeable []oddsDomain.ProviderID
	registry := executionApp.NewRegistry()

	for _, pc := range cfg.Providers {
		providerID := oddsDomain.ProviderID(pc.Name)
		switch pc.Kind {
		case "rest":
			book, err := restbook.New(restbook.Config{
				Provider:          providerID,
				BaseURL:           pc.BaseURL,
				APIKey:            pc.APIKey,
				RequestsPerMinute: pc.RequestsPerMinute,
				SupportsCancel:    pc.SupportsCancel,
			}, log)
			if err != nil {
				return fmt.Errorf("failed to create provider %s: %w", pc.Name, err)
			}
			fetchers = append(fetchers, book)
			placeable = append(placeable, providerID)

			capability := executionApp.Capability{Placer: book}
			if book.SupportsCancel() {
				capability.Canceller = book
			}
			if err := registry.Register(providerID, capability); err != nil {
				return err
			}
		case "exchange":
			feed, err := exchangefeed.New(exchangefeed.Config{
				Provider:     providerID,
				WebSocketURL: pc.WebSocketURL,
				APIKey:       pc.APIKey,
				Sports:       sports,
			}, log)
			if err != nil {
				return fmt.Errorf("failed to create provider %s: %w", pc.Name, err)
			}
			fetchers = append(fetchers, feed)
			feeds = append(feeds, feed)
		}
	}

	quotes := oddsApp.NewQuoteService(fetchers, cfg.Scan.FetchTimeout, log, inst)

	scanner := arbitrageApp.NewScanner(arbitrageApp.ScannerConfig{
		MinProfitPct:     cfg.Scan.MinProfitPctDecimal(),
		MaxTotalStake:    cfg.Scan.MaxStakeDecimal(),
		PlatformStakeCap: cfg.Scan.PlatformStakeCapDecimal(),
	}, log, inst)

	var reporter arbitrageApp.Reporter
	var observer executionApp.ResultObserver
	var tuiDone <-chan struct{}
	if tuiMode {
		tui := arbitrageInfra.NewTUIReporter()
		reporter, observer = tui, tui
		tuiDone = tui.Done()
	} else {
		console := arbitrageInfra.NewConsoleReporter()
		reporter, observer = console, console
	}
	if cfg.Notify.Enabled() {
		nr := &notifyingReporter{reporter: reporter, observer: observer, notifier: notifier}
		reporter, observer = nr, nr
	}

	// Execution path: only assembled when auto-execute is on. Without it the
	// engine detects and reports but never stakes.
	var executor arbitrageApp.Executor
	var pool *executionApp.Pool
	if cfg.Execution.AutoExecute {
		// Every provider that can appear in an opportunity leg must be able to
		// place; refuse to start rather than discover a gap mid-transaction.
		all := make([]oddsDomain.ProviderID, 0, len(fetchers))
		for _, f := range fetchers {
			all = append(all, f.Provider())
		}
		if err := registry.Validate(all); err != nil {
			return fmt.Errorf("auto-execute enabled but not all providers can place bets: %w", err)
		}

		var revalidator executionApp.Revalidator
		if cfg.Execution.RevalidateOdds {
			revalidator = executionApp.NewFreshQuoteRevalidator(quotes, cfg.Scan.MinProfitPctDecimal())
		}

		coordinator := executionApp.NewCoordinator(
			registry, locks, revalidator, notifier, audit,
			executionApp.CoordinatorConfig{
				LockTTL:    cfg.Execution.LockTTL,
				LegTimeout: cfg.Execution.LegTimeout,
			},
			log, inst,
		)
		coordinator.SetResultObserver(observer)

		pool = executionApp.NewPool(coordinator, cfg.Execution.Workers, cfg.Execution.Workers*4, log)
		pool.Start(ctx)
		executor = pool
		log.Info(ctx, "auto-execute enabled",
			"workers", cfg.Execution.Workers,
			"placeable_providers", len(placeable))
	}

	// Connect streams. A feed that cannot connect at startup keeps redialing
	// in the background; until it connects the cycle reports it offline.
	for _, feed := range feeds {
		if err := feed.Start(ctx); err != nil {
			return fmt.Errorf("failed to start feed %s: %w", feed.Provider(), err)
		}
	}
	defer func() {
		for _, feed := range feeds {
			_ = feed.Stop()
		}
	}()

	detector := arbitrageApp.NewDetector(quotes, scanner, reporter, executor,
		arbitrageApp.DetectorConfig{
			Sports:       sports,
			PollInterval: cfg.Scan.PollInterval,
			ErrorBackoff: cfg.Scan.ErrorBackoff,
		}, log)

	if err := detector.Start(ctx); err != nil {
		return fmt.Errorf("failed to start detector: %w", err)
	}

	// Block until shutdown: signal cancellation, or the user quitting the TUI.
	if tuiDone != nil {
		select {
		case <-ctx.Done():
		case <-tuiDone:
		}
	} else {
		<-ctx.Done()
	}

	log.Info(context.Background(), "shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := detector.Stop(stopCtx); err != nil {
		log.Error(stopCtx, "error stopping detector", "error", err.Error())
	}
	if pool != nil {
		// Waits for in-flight executions; a started leg A is never abandoned.
		pool.Stop()
	}
	return nil
}

// notifyingReporter forwards to the underlying reporter and additionally
// pushes configured events to the operator notification channel. Deliveries
// run on their own goroutine so a slow channel never stalls the detection
// cycle or an execution worker.
type notifyingReporter struct {
	reporter arbitrageApp.Reporter
	observer executionApp.ResultObserver
	notifier *notify.Notifier
}

func (r *notifyingReporter) Start(ctx context.Context) error { return r.reporter.Start(ctx) }
func (r *notifyingReporter) Stop() error                     { return r.reporter.Stop() }

func (r *notifyingReporter) Report(opp arbitrageDomain.Opportunity) {
	r.reporter.Report(opp)
	title := fmt.Sprintf("Arbitrage %s%%", opp.ProfitPct.StringFixed(2))
	go func() {
		_ = r.notifier.Notify(context.Background(), notify.EventOpportunity, title, opp.Describe())
	}()
}

func (r *notifyingReporter) UpdateProviderStatus(provider oddsDomain.ProviderID, healthy bool) {
	r.reporter.UpdateProviderStatus(provider, healthy)
}

func (r *notifyingReporter) ObserveResult(result executionDomain.ExecutionResult) {
	r.observer.ObserveResult(result)
	title := fmt.Sprintf("Execution %s", result.OverallStatus)
	go func() {
		_ = r.notifier.Notify(context.Background(), notify.EventExecution, title, result.Opportunity.Describe())
	}()
}
