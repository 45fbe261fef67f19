package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/ports"
	"github.com/google/uuid"
)

// handleListBots devuelve todos los bots con sus stats agregadas.
func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.ListBotStats(r.Context())
	if err != nil {
		slog.Error("list bots failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if stats == nil {
		stats = []domain.BotStats{}
	}
	for i := range stats {
		stats[i].TotalProfit = roundCents(stats[i].TotalProfit)
	}
	writeJSON(w, http.StatusOK, map[string]any{"bots": stats})
}

// handleCreateBot registra un bot explícitamente y snapshotea su balance
// inicial en best-effort.
func (s *Server) handleCreateBot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string `json:"name"`
		WalletAddress string `json:"walletAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" || body.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: name, walletAddress")
		return
	}
	if !walletRe.MatchString(body.WalletAddress) {
		writeError(w, http.StatusBadRequest, "invalid wallet address format")
		return
	}

	ctx := r.Context()
	bot := domain.Bot{
		ID:            uuid.New().String(),
		Name:          body.Name,
		WalletAddress: body.WalletAddress,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.storage.CreateBot(ctx, bot); err != nil {
		if errors.Is(err, ports.ErrDuplicateWallet) {
			writeError(w, http.StatusConflict, "a bot with this wallet address already exists")
			return
		}
		slog.Error("create bot failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Balance inicial: si falla, el bot queda creado igualmente.
	if _, err := s.monitor.RefreshBotBalance(ctx, bot); err != nil {
		slog.Warn("initial balance snapshot failed", "bot_id", bot.ID, "err", err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"bot": bot})
}

// handleGetBot devuelve el detalle de un bot: trades y snapshots recientes.
func (s *Server) handleGetBot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	bot, err := s.storage.GetBot(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("get bot failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	trades, _, err := s.storage.ListTrades(ctx, domain.TradeFilter{BotID: id, Limit: 10})
	if err != nil {
		slog.Error("get bot trades failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	snaps, err := s.storage.ListSnapshots(ctx, id, 10)
	if err != nil {
		slog.Error("get bot snapshots failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	if snaps == nil {
		snaps = []domain.BalanceSnapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bot":              bot,
		"trades":           trades,
		"balanceSnapshots": snaps,
	})
}

func (s *Server) handleRenameBot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "missing required field: name")
		return
	}

	id := r.PathValue("id")
	err := s.storage.RenameBot(r.Context(), id, body.Name)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("rename bot failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	bot, err := s.storage.GetBot(r.Context(), id)
	if err != nil {
		slog.Error("rename bot reload failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bot": bot})
}

// handleDeleteBot borra el bot y, en cascada, todos sus trades y snapshots.
func (s *Server) handleDeleteBot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := s.storage.DeleteBot(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "bot not found")
		return
	}
	if err != nil {
		slog.Error("delete bot failed", "bot_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleRefreshBalances lanza un ciclo de sincronización de balances para
// todos los bots y reporta los contadores por-bot.
func (s *Server) handleRefreshBalances(w http.ResponseWriter, r *http.Request) {
	summary, err := s.monitor.SyncAllBalances(r.Context())
	if err != nil {
		slog.Error("refresh balances failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	total := summary.Refreshed + summary.Failed
	if summary.Results == nil {
		summary.Results = []domain.BotBalanceResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Refreshed %d/%d bot balances", summary.Refreshed, total),
		"updated": summary.Refreshed,
		"failed":  summary.Failed,
		"results": summary.Results,
	})
}

// handleBalance consulta el balance en vivo de cualquier wallet.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !walletRe.MatchString(address) {
		writeError(w, http.StatusBadRequest, "invalid wallet address format")
		return
	}

	balances := s.balances.GetBalances(r.Context(), address)

	writeJSON(w, http.StatusOK, map[string]any{
		"walletAddress": address,
		"balanceUsdc":   balances.USDC,
		"balanceMatic":  balances.Matic,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// roundCents redondea a céntimos para el display de profit.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
