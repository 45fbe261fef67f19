package domain

import "time"

// Bot es un agente de trading externo identificado por su wallet en Polygon.
type Bot struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// BotStats es un Bot con sus métricas agregadas de trading.
type BotStats struct {
	Bot
	TotalTrades   int     `json:"totalTrades"`
	PendingTrades int     `json:"pendingTrades"`
	WonTrades     int     `json:"wonTrades"`
	LostTrades    int     `json:"lostTrades"`
	// TotalProfit suma potentialWin-cost de los WON y resta cost de los LOST.
	TotalProfit float64 `json:"totalProfit"`
	// CurrentBalance es el USDC del último snapshot, nil si nunca se consultó.
	CurrentBalance *float64 `json:"currentBalance"`
}
