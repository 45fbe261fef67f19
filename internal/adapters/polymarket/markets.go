package polymarket

// markets.go — consulta de resolución de mercados.
//
// CheckResolution degrada en soft a "no resuelto" ante cualquier fallo:
// un mercado que no se puede consultar hoy se reintenta en el siguiente
// pase de reconciliación, nunca aborta el batch completo.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

const marketsPath = "/markets"

// CheckResolution consulta si el mercado cerró con un outcome ganador.
// Resuelto ⇔ closed y exactamente un token con winner=true.
func (c *Client) CheckResolution(ctx context.Context, marketID string) domain.MarketResolution {
	market, err := c.fetchMarket(ctx, marketID)
	if err != nil {
		slog.Warn("market fetch failed, leaving unresolved",
			"market_id", marketID,
			"err", err,
		)
		return domain.MarketResolution{}
	}

	winner, count := winningToken(market.Tokens)
	if !market.Closed || count != 1 {
		return domain.MarketResolution{}
	}

	return domain.MarketResolution{
		Resolved:       true,
		WinningOutcome: winner.Outcome,
		ResolutionTime: time.Now().UTC(),
	}
}

// GetMarket devuelve la vista mínima de un mercado para display.
func (c *Client) GetMarket(ctx context.Context, marketID string) (domain.MarketInfo, error) {
	market, err := c.fetchMarket(ctx, marketID)
	if err != nil {
		return domain.MarketInfo{}, fmt.Errorf("polymarket.GetMarket: %w", err)
	}

	info := domain.MarketInfo{
		ID:       market.ConditionID,
		Question: market.Question,
	}

	winner, count := winningToken(market.Tokens)
	if market.Closed && count == 1 {
		now := time.Now().UTC()
		info.Resolved = true
		info.Outcome = winner.Outcome
		info.ResolutionTime = &now
	}
	return info, nil
}

func (c *Client) fetchMarket(ctx context.Context, marketID string) (clobMarket, error) {
	url := fmt.Sprintf("%s%s/%s", c.clobBase, marketsPath, marketID)

	var market clobMarket
	if err := c.get(ctx, url, &market); err != nil {
		return clobMarket{}, err
	}
	return market, nil
}

// winningToken devuelve el primer token ganador y cuántos hay en total.
func winningToken(tokens []clobToken) (clobToken, int) {
	var winner clobToken
	count := 0
	for _, t := range tokens {
		if t.Winner {
			if count == 0 {
				winner = t
			}
			count++
		}
	}
	return winner, count
}
