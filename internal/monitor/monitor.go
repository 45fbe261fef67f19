package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/bottrack/internal/events"
	"github.com/alejandrodnm/bottrack/internal/ports"
)

// Config contiene la configuración del monitor.
type Config struct {
	// TradeCheckInterval es la cadencia del pase de reconciliación.
	TradeCheckInterval time.Duration
	// BalanceSyncInterval es la cadencia del ciclo de balances.
	BalanceSyncInterval time.Duration
	// CourtesyDelay es la pausa entre consultas a mercados distintos
	// dentro de un pase, por cortesía con el API. No es correctness.
	CourtesyDelay time.Duration
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		TradeCheckInterval:  time.Minute,
		BalanceSyncInterval: 5 * time.Minute,
		CourtesyDelay:       200 * time.Millisecond,
	}
}

// Monitor orquesta los dos ciclos periódicos: reconciliación de trades
// pendientes y sincronización de balances.
//
// Run atiende ambos timers en una sola goroutine, así un pase en vuelo
// retrasa al otro en vez de solaparse. Los triggers externos (cron HTTP,
// refresh manual) sí pueden correr en paralelo con Run: es seguro porque
// cada transición de trade va guardada por el filtro PENDING del UPDATE
// y los snapshots son append-only.
type Monitor struct {
	cfg      Config
	storage  ports.Storage
	markets  ports.MarketResolver
	balances ports.BalanceProvider
	bus      *events.Bus
	notifier ports.Notifier
}

// New crea un Monitor con todas las dependencias inyectadas.
// notifier puede ser nil.
func New(
	cfg Config,
	storage ports.Storage,
	markets ports.MarketResolver,
	balances ports.BalanceProvider,
	bus *events.Bus,
	notifier ports.Notifier,
) *Monitor {
	return &Monitor{
		cfg:      cfg,
		storage:  storage,
		markets:  markets,
		balances: balances,
		bus:      bus,
		notifier: notifier,
	}
}

// Run ejecuta ambos ciclos hasta que el contexto se cancele.
// Ningún error de un ciclo es fatal: se loguea y se reintenta en el
// siguiente tick.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor starting",
		"trade_check_interval", m.cfg.TradeCheckInterval,
		"balance_sync_interval", m.cfg.BalanceSyncInterval,
	)

	// Pase inicial de ambos ciclos al arrancar.
	m.runTradeCheck(ctx)
	m.runBalanceSync(ctx)

	tradeTicker := time.NewTicker(m.cfg.TradeCheckInterval)
	defer tradeTicker.Stop()
	balanceTicker := time.NewTicker(m.cfg.BalanceSyncInterval)
	defer balanceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return nil
		case <-tradeTicker.C:
			m.runTradeCheck(ctx)
		case <-balanceTicker.C:
			m.runBalanceSync(ctx)
		}
	}
}

func (m *Monitor) runTradeCheck(ctx context.Context) {
	start := time.Now()

	summary, err := m.CheckPendingTrades(ctx)
	if err != nil {
		slog.Error("trade check failed", "err", err)
		return
	}

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, summary); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("trade check complete",
		"checked", summary.Checked,
		"updated", summary.Updated,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

func (m *Monitor) runBalanceSync(ctx context.Context) {
	start := time.Now()

	summary, err := m.SyncAllBalances(ctx)
	if err != nil {
		slog.Error("balance sync failed", "err", err)
		return
	}

	slog.Info("balance sync complete",
		"refreshed", summary.Refreshed,
		"failed", summary.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
