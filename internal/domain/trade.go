package domain

import "time"

// TradeStatus es el estado del ciclo de vida de un trade.
// PENDING es el estado inicial; WON, LOST y CANCELLED son terminales.
type TradeStatus string

const (
	StatusPending   TradeStatus = "PENDING"
	StatusWon       TradeStatus = "WON"
	StatusLost      TradeStatus = "LOST"
	StatusCancelled TradeStatus = "CANCELLED"
)

// Terminal devuelve true si el estado no admite más transiciones.
func (s TradeStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusCancelled
}

// Valid devuelve true si el string es uno de los estados conocidos.
func (s TradeStatus) Valid() bool {
	switch s {
	case StatusPending, StatusWon, StatusLost, StatusCancelled:
		return true
	}
	return false
}

// Trade es una apuesta de un bot sobre un outcome de un mercado de Polymarket.
type Trade struct {
	ID             string      `json:"id"`
	BotID          string      `json:"botId"`
	Bot            *Bot        `json:"bot,omitempty"`
	MarketID       string      `json:"marketId"`
	MarketQuestion string      `json:"marketQuestion"`
	Outcome        string      `json:"outcome"`
	CostUSDC       float64     `json:"costUsdc"`
	Shares         float64     `json:"shares"`
	PotentialWin   float64     `json:"potentialWin"`
	Status         TradeStatus `json:"status"`
	TxHash         string      `json:"txHash,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	ResolvedAt     *time.Time  `json:"resolvedAt,omitempty"`
}

// Profit devuelve el P&L del trade: potentialWin-cost si ganó, -cost si
// perdió, 0 mientras no haya resultado.
func (t Trade) Profit() float64 {
	switch t.Status {
	case StatusWon:
		return t.PotentialWin - t.CostUSDC
	case StatusLost:
		return -t.CostUSDC
	}
	return 0
}

// TradeFilter restringe un listado de trades.
type TradeFilter struct {
	BotID  string
	Status TradeStatus
	Limit  int
	Offset int
}
