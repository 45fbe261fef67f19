package ports

import (
	"context"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// BalanceProvider consulta los balances on-chain de una wallet.
type BalanceProvider interface {
	// GetBalances devuelve los balances USDC y POL de la wallet en escala
	// humana. Cada lectura degrada independientemente a 0 ante cualquier
	// fallo externo — nunca devuelve error.
	GetBalances(ctx context.Context, walletAddress string) domain.Balances
}
