package domain

import "time"

// EventType identifica la variante de un Event.
type EventType string

const (
	EventTradeCreated   EventType = "trade_created"
	EventTradeUpdated   EventType = "trade_updated"
	EventBalanceUpdated EventType = "balance_updated"
)

// Event es la notificación tipada que viaja por el bus hacia los dashboards.
// Data es el snapshot de la entidad afectada: un Trade (con bot) para los
// eventos de trade, un BalanceUpdate para los de balance.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// BalanceUpdate es el payload de un evento balance_updated.
type BalanceUpdate struct {
	BotID         string    `json:"botId"`
	WalletAddress string    `json:"walletAddress"`
	BalanceUSDC   float64   `json:"balanceUsdc"`
	BalanceMatic  float64   `json:"balanceMatic"`
	ObservedAt    time.Time `json:"timestamp"`
}
