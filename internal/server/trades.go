package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// handleListTrades lista trades con filtros botId/status y paginación.
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.TradeFilter{
		BotID:  q.Get("botId"),
		Limit:  50,
		Offset: 0,
	}

	if raw := q.Get("status"); raw != "" {
		status := domain.TradeStatus(strings.ToUpper(raw))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	trades, total, err := s.storage.ListTrades(r.Context(), filter)
	if err != nil {
		slog.Error("list trades failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"pagination": map[string]any{
			"total":   total,
			"limit":   filter.Limit,
			"offset":  filter.Offset,
			"hasMore": filter.Offset+len(trades) < total,
		},
	})
}

// handleCronCheckTrades ejecuta un único pase de reconciliación y devuelve
// su resumen. Es el mismo algoritmo que corre el timer interno, pensado
// para dispararse desde un cron job externo.
func (s *Server) handleCronCheckTrades(w http.ResponseWriter, r *http.Request) {
	if !bearerOK(r, s.cfg.CronSecret) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := s.monitor.CheckPendingTrades(r.Context())
	if err != nil {
		slog.Error("cron trade check failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if summary.Results == nil {
		summary.Results = []domain.TradeResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Trade resolution check complete",
		"checked":   summary.Checked,
		"updated":   summary.Updated,
		"results":   summary.Results,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
