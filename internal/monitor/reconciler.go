package monitor

// reconciler.go — el pase de reconciliación de trades pendientes.
//
// Idempotencia: el pase solo selecciona trades PENDING y el UPDATE lleva
// guard de estado, así que repetirlo sin cambios externos es un no-op y
// dos pases solapados sobre el mismo trade no duplican ni la transición
// ni los eventos.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/google/uuid"
)

// CheckPendingTrades ejecuta un pase completo: carga los PENDING, agrupa
// por mercado (una consulta por mercado distinto), transiciona a WON/LOST
// los trades de mercados resueltos y emite los eventos correspondientes.
//
// Los mercados sin resolver, o cuya consulta falló en soft, quedan PENDING
// para el siguiente pase — es el estado estacionario esperado, no un error.
func (m *Monitor) CheckPendingTrades(ctx context.Context) (domain.ReconcileSummary, error) {
	summary := domain.ReconcileSummary{Timestamp: time.Now().UTC()}

	pending, err := m.storage.ListPendingTrades(ctx)
	if err != nil {
		return summary, fmt.Errorf("monitor.CheckPendingTrades: %w", err)
	}
	summary.Checked = len(pending)

	if len(pending) == 0 {
		return summary, nil
	}

	slog.Debug("checking pending trades", "count", len(pending))

	// Agrupar por mercado: cada mercado distinto se consulta una sola vez
	// por pase, tenga 1 o 50 trades pendientes.
	byMarket := make(map[string][]domain.Trade)
	var marketOrder []string
	for _, trade := range pending {
		if _, seen := byMarket[trade.MarketID]; !seen {
			marketOrder = append(marketOrder, trade.MarketID)
		}
		byMarket[trade.MarketID] = append(byMarket[trade.MarketID], trade)
	}

	for i, marketID := range marketOrder {
		if i > 0 && !m.courtesyWait(ctx) {
			break
		}

		resolution := m.markets.CheckResolution(ctx, marketID)
		if !resolution.Resolved || resolution.WinningOutcome == "" {
			continue
		}

		for _, trade := range byMarket[marketID] {
			result, ok := m.settleTrade(ctx, trade, resolution.WinningOutcome)
			if !ok {
				continue
			}
			summary.Updated++
			summary.Results = append(summary.Results, result)
		}
	}

	return summary, nil
}

// settleTrade transiciona un trade pendiente según el outcome ganador.
// Devuelve ok=false si la transición no se aplicó (error de persistencia
// o carrera perdida contra otro pase).
func (m *Monitor) settleTrade(ctx context.Context, trade domain.Trade, winningOutcome string) (domain.TradeResult, bool) {
	status := domain.StatusLost
	if strings.EqualFold(trade.Outcome, winningOutcome) {
		status = domain.StatusWon
	}
	resolvedAt := time.Now().UTC()

	changed, err := m.storage.UpdateTradeResolution(ctx, trade.ID, status, resolvedAt)
	if err != nil {
		slog.Warn("trade update failed, will retry next pass",
			"trade_id", trade.ID,
			"market_id", trade.MarketID,
			"err", err,
		)
		return domain.TradeResult{}, false
	}
	if !changed {
		// Otro pase llegó primero: sin evento, sin resultado.
		slog.Debug("trade already resolved by concurrent pass", "trade_id", trade.ID)
		return domain.TradeResult{}, false
	}

	trade.Status = status
	trade.ResolvedAt = &resolvedAt

	slog.Info("trade resolved",
		"trade_id", trade.ID,
		"market_id", trade.MarketID,
		"status", status,
		"profit", fmt.Sprintf("%+.2f", trade.Profit()),
	)

	// El evento va SIEMPRE después de persistir, nunca antes.
	m.bus.Emit(domain.Event{Type: domain.EventTradeUpdated, Data: trade})

	// Best-effort: un fallo aquí no toca la transición ya commiteada.
	if trade.Bot != nil {
		m.RefreshBotBalance(ctx, *trade.Bot)
	}

	return domain.TradeResult{
		TradeID:  trade.ID,
		MarketID: trade.MarketID,
		Status:   status,
		Profit:   trade.Profit(),
	}, true
}

// RefreshBotBalance consulta los balances del bot, añade un snapshot y
// emite balance_updated. Devuelve el snapshot creado.
func (m *Monitor) RefreshBotBalance(ctx context.Context, bot domain.Bot) (domain.BalanceSnapshot, error) {
	balances := m.balances.GetBalances(ctx, bot.WalletAddress)

	snap := domain.BalanceSnapshot{
		ID:           uuid.New().String(),
		BotID:        bot.ID,
		BalanceUSDC:  balances.USDC,
		BalanceMatic: balances.Matic,
		ObservedAt:   time.Now().UTC(),
	}

	if err := m.storage.AddSnapshot(ctx, snap); err != nil {
		slog.Warn("balance snapshot failed",
			"bot_id", bot.ID,
			"wallet", bot.WalletAddress,
			"err", err,
		)
		return domain.BalanceSnapshot{}, fmt.Errorf("monitor.RefreshBotBalance: %w", err)
	}

	m.bus.Emit(domain.Event{
		Type: domain.EventBalanceUpdated,
		Data: domain.BalanceUpdate{
			BotID:         bot.ID,
			WalletAddress: bot.WalletAddress,
			BalanceUSDC:   balances.USDC,
			BalanceMatic:  balances.Matic,
			ObservedAt:    snap.ObservedAt,
		},
	})

	return snap, nil
}

// courtesyWait pausa entre mercados. Devuelve false si el contexto se
// canceló durante la espera.
func (m *Monitor) courtesyWait(ctx context.Context) bool {
	if m.cfg.CourtesyDelay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(m.cfg.CourtesyDelay):
		return true
	case <-ctx.Done():
		return false
	}
}
