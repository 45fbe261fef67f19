package ports

import (
	"context"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// Notifier recibe el resumen de cada pase de reconciliación.
type Notifier interface {
	Notify(ctx context.Context, summary domain.ReconcileSummary) error
}
