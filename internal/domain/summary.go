package domain

import "time"

// TradeResult es el resultado de resolver un trade en un pase de reconciliación.
type TradeResult struct {
	TradeID  string      `json:"tradeId"`
	MarketID string      `json:"marketId"`
	Status   TradeStatus `json:"status"`
	Profit   float64     `json:"profit"`
}

// ReconcileSummary resume un pase completo sobre los trades pendientes.
type ReconcileSummary struct {
	Checked   int           `json:"checked"`
	Updated   int           `json:"updated"`
	Results   []TradeResult `json:"results"`
	Timestamp time.Time     `json:"timestamp"`
}

// BotBalanceResult es el resultado de refrescar el balance de un bot.
type BotBalanceResult struct {
	BotID       string  `json:"botId"`
	Success     bool    `json:"success"`
	BalanceUSDC float64 `json:"balanceUsdc,omitempty"`
}

// BalanceSyncSummary resume un ciclo de sincronización de balances.
type BalanceSyncSummary struct {
	Refreshed int                `json:"updated"`
	Failed    int                `json:"failed"`
	Results   []BotBalanceResult `json:"results"`
}
