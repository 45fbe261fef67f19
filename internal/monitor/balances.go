package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// SyncAllBalances refresca y snapshotea el balance de todos los bots.
// Los fallos son por-bot: uno que falle no aborta el resto del ciclo.
func (m *Monitor) SyncAllBalances(ctx context.Context) (domain.BalanceSyncSummary, error) {
	var summary domain.BalanceSyncSummary

	bots, err := m.storage.ListBots(ctx)
	if err != nil {
		return summary, fmt.Errorf("monitor.SyncAllBalances: %w", err)
	}

	for _, bot := range bots {
		snap, err := m.RefreshBotBalance(ctx, bot)
		if err != nil {
			slog.Warn("balance sync failed for bot, continuing",
				"bot_id", bot.ID,
				"name", bot.Name,
				"err", err,
			)
			summary.Failed++
			summary.Results = append(summary.Results, domain.BotBalanceResult{BotID: bot.ID})
			continue
		}

		slog.Debug("balance synced",
			"bot_id", bot.ID,
			"name", bot.Name,
			"usdc", snap.BalanceUSDC,
			"matic", snap.BalanceMatic,
		)
		summary.Refreshed++
		summary.Results = append(summary.Results, domain.BotBalanceResult{
			BotID:       bot.ID,
			Success:     true,
			BalanceUSDC: snap.BalanceUSDC,
		})
	}

	return summary, nil
}
