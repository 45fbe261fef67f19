package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/bottrack/config"
	"github.com/alejandrodnm/bottrack/internal/adapters/etherscan"
	"github.com/alejandrodnm/bottrack/internal/adapters/notify"
	"github.com/alejandrodnm/bottrack/internal/adapters/polymarket"
	"github.com/alejandrodnm/bottrack/internal/adapters/storage"
	"github.com/alejandrodnm/bottrack/internal/events"
	"github.com/alejandrodnm/bottrack/internal/monitor"
	"github.com/alejandrodnm/bottrack/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one reconcile + balance sync pass and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print reconcile results as a table")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("bottrack starting",
		"config", *configPath,
		"addr", cfg.Server.Addr,
		"trade_check_interval", cfg.TradeCheckInterval(),
		"balance_sync_interval", cfg.BalanceSyncInterval(),
		"once", *once,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	markets := polymarket.NewClient(cfg.API.CLOBBase)
	balances := etherscan.NewClient(cfg.API.EtherscanBase, cfg.API.EtherscanKey)
	bus := events.NewBus()
	notifier := notify.NewConsole(*table)

	monCfg := monitor.DefaultConfig()
	monCfg.TradeCheckInterval = cfg.TradeCheckInterval()
	monCfg.BalanceSyncInterval = cfg.BalanceSyncInterval()
	monCfg.CourtesyDelay = cfg.CourtesyDelay()

	mon := monitor.New(monCfg, store, markets, balances, bus, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		runOnce(ctx, mon, notifier)
		return
	}

	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		WebhookSecret: cfg.Server.WebhookSecret,
		CronSecret:    cfg.Server.CronSecret,
		Heartbeat:     cfg.Heartbeat(),
	}, store, balances, mon, bus)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			cancel()
		}
	}()

	if err := mon.Run(ctx); err != nil {
		slog.Error("monitor exited with error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", "err", err)
	}

	slog.Info("bottrack stopped cleanly")
}

// runOnce ejecuta un único pase de reconciliación y de balances, imprime
// el resumen y termina.
func runOnce(ctx context.Context, mon *monitor.Monitor, notifier *notify.Console) {
	summary, err := mon.CheckPendingTrades(ctx)
	if err != nil {
		slog.Error("trade check failed", "err", err)
		os.Exit(1)
	}
	if err := notifier.Notify(ctx, summary); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	balanceSummary, err := mon.SyncAllBalances(ctx)
	if err != nil {
		slog.Error("balance sync failed", "err", err)
		os.Exit(1)
	}

	slog.Info("single pass complete",
		"trades_checked", summary.Checked,
		"trades_updated", summary.Updated,
		"balances_refreshed", balanceSummary.Refreshed,
		"balances_failed", balanceSummary.Failed,
	)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
