package server

// Capa HTTP del tracker: webhook de ingestión, CRUD de bots/trades,
// triggers de reconciliación y refresh, y los streams de eventos en vivo.
// Toda la validación de entrada vive aquí — el core nunca ve entidades
// inválidas.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/alejandrodnm/bottrack/internal/events"
	"github.com/alejandrodnm/bottrack/internal/monitor"
	"github.com/alejandrodnm/bottrack/internal/ports"
)

// walletRe valida el formato de dirección de wallet de Polygon.
var walletRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Config contiene la configuración del servidor HTTP.
type Config struct {
	Addr string
	// WebhookSecret protege el webhook de trades; vacío = sin auth.
	WebhookSecret string
	// CronSecret protege el trigger de cron; vacío = sin auth.
	CronSecret string
	// Heartbeat es la cadencia del keep-alive de los streams.
	Heartbeat time.Duration
}

// Server expone el API HTTP del tracker.
type Server struct {
	cfg      Config
	storage  ports.Storage
	balances ports.BalanceProvider
	monitor  *monitor.Monitor
	bus      *events.Bus
	mux      *http.ServeMux
}

// New crea el servidor con todas las dependencias inyectadas.
func New(
	cfg Config,
	storage ports.Storage,
	balances ports.BalanceProvider,
	mon *monitor.Monitor,
	bus *events.Bus,
) *Server {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		storage:  storage,
		balances: balances,
		monitor:  mon,
		bus:      bus,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/webhook/trade", s.handleWebhookTrade)

	s.mux.HandleFunc("GET /api/bots", s.handleListBots)
	s.mux.HandleFunc("POST /api/bots", s.handleCreateBot)
	s.mux.HandleFunc("GET /api/bots/{id}", s.handleGetBot)
	s.mux.HandleFunc("PUT /api/bots/{id}", s.handleRenameBot)
	s.mux.HandleFunc("DELETE /api/bots/{id}", s.handleDeleteBot)
	s.mux.HandleFunc("POST /api/bots/refresh-balances", s.handleRefreshBalances)

	s.mux.HandleFunc("GET /api/trades", s.handleListTrades)
	s.mux.HandleFunc("GET /api/balance/{address}", s.handleBalance)
	s.mux.HandleFunc("GET /api/cron/check-trades", s.handleCronCheckTrades)

	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events/ws", s.handleEventsWS)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

// Handler devuelve el handler raíz, listo para montar en un http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// bearerOK comprueba el Authorization header contra el secret.
// Un secret vacío desactiva la comprobación.
func bearerOK(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+secret
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
