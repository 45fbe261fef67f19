package ports

import (
	"context"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// MarketResolver consulta el estado de resolución de un mercado externo.
type MarketResolver interface {
	// CheckResolution devuelve si el mercado cerró con un outcome ganador.
	// Cualquier fallo externo (red, not-found, payload inválido) degrada a
	// Resolved=false en lugar de devolver error — el reintento es del
	// siguiente pase de reconciliación, no del cliente.
	CheckResolution(ctx context.Context, marketID string) domain.MarketResolution
}
