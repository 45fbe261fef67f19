package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/ports"
	"github.com/google/uuid"
)

// webhookTradePayload es la notificación de trade que envían los bots.
type webhookTradePayload struct {
	BotName        string  `json:"botName"`
	WalletAddress  string  `json:"walletAddress"`
	MarketID       string  `json:"marketId"`
	MarketQuestion string  `json:"marketQuestion"`
	Outcome        string  `json:"outcome"`
	CostUSDC       float64 `json:"costUsdc"`
	Shares         float64 `json:"shares"`
	PotentialWin   float64 `json:"potentialWin"`
	TxHash         string  `json:"txHash"`
}

// handleWebhookTrade ingesta un trade nuevo, auto-provisionando el bot por
// wallet si no existe, y emite trade_created síncronamente con la creación.
func (s *Server) handleWebhookTrade(w http.ResponseWriter, r *http.Request) {
	if !bearerOK(r, s.cfg.WebhookSecret) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload webhookTradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if payload.WalletAddress == "" || payload.MarketID == "" || payload.Outcome == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: walletAddress, marketId, outcome")
		return
	}
	if !walletRe.MatchString(payload.WalletAddress) {
		writeError(w, http.StatusBadRequest, "invalid wallet address format")
		return
	}

	ctx := r.Context()

	bot, err := s.storage.GetBotByWallet(ctx, payload.WalletAddress)
	if errors.Is(err, ports.ErrNotFound) {
		bot = domain.Bot{
			ID:            uuid.New().String(),
			Name:          payload.BotName,
			WalletAddress: payload.WalletAddress,
			CreatedAt:     time.Now().UTC(),
		}
		if bot.Name == "" {
			bot.Name = fmt.Sprintf("Bot %s", payload.WalletAddress[:8])
		}
		err = s.storage.CreateBot(ctx, bot)
	}
	if err != nil {
		slog.Error("webhook: bot lookup failed", "wallet", payload.WalletAddress, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	question := payload.MarketQuestion
	if question == "" {
		question = "Unknown market"
	}

	trade := domain.Trade{
		ID:             uuid.New().String(),
		BotID:          bot.ID,
		Bot:            &bot,
		MarketID:       payload.MarketID,
		MarketQuestion: question,
		Outcome:        strings.ToUpper(payload.Outcome),
		CostUSDC:       payload.CostUSDC,
		Shares:         payload.Shares,
		PotentialWin:   payload.PotentialWin,
		Status:         domain.StatusPending,
		TxHash:         payload.TxHash,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.storage.CreateTrade(ctx, trade); err != nil {
		slog.Error("webhook: trade create failed", "market_id", trade.MarketID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.bus.Emit(domain.Event{Type: domain.EventTradeCreated, Data: trade})

	slog.Info("trade ingested",
		"trade_id", trade.ID,
		"bot", bot.Name,
		"market_id", trade.MarketID,
		"outcome", trade.Outcome,
	)

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "trade": trade})
}
