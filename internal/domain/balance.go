package domain

import "time"

// Balances es una lectura puntual de los dos activos de una wallet.
type Balances struct {
	USDC  float64 `json:"balanceUsdc"`
	Matic float64 `json:"balanceMatic"`
}

// BalanceSnapshot es una observación inmutable del balance de un bot.
// Los snapshots solo se añaden, nunca se actualizan; el balance "actual"
// de un bot es el snapshot más reciente por ObservedAt.
type BalanceSnapshot struct {
	ID           string    `json:"id"`
	BotID        string    `json:"botId"`
	BalanceUSDC  float64   `json:"balanceUsdc"`
	BalanceMatic float64   `json:"balanceMatic"`
	ObservedAt   time.Time `json:"timestamp"`
}
