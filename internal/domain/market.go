package domain

import "time"

// MarketResolution es el resultado de consultar si un mercado ya resolvió.
// Un mercado está resuelto cuando el CLOB lo reporta cerrado y exactamente
// un token está marcado como ganador.
type MarketResolution struct {
	Resolved       bool
	WinningOutcome string
	ResolutionTime time.Time
}

// MarketInfo es la vista mínima de un mercado para display y diagnóstico.
type MarketInfo struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	Resolved       bool       `json:"resolved"`
	Outcome        string     `json:"outcome,omitempty"`
	ResolutionTime *time.Time `json:"resolutionTime,omitempty"`
}
