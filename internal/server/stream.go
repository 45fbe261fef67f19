package server

// stream.go — stream de eventos en vivo para dashboards.
//
// Formato: JSON delimitado por newlines. Primero un ack de conexión,
// después una línea por evento del bus, y un keep-alive periódico para
// que los intermediarios no corten conexiones idle. Entrega best-effort:
// un cliente lento pierde eventos (el dashboard re-fetchea al reconectar).

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// streamBuffer es el tamaño del buffer por conexión entre el bus y el writer.
const streamBuffer = 16

type streamControl struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

func controlMessage(kind string) streamControl {
	return streamControl{Type: kind, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// handleEvents sirve el stream NDJSON.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	enc := json.NewEncoder(w)

	// Ack inmediato al conectar.
	if err := enc.Encode(controlMessage("connected")); err != nil {
		return
	}
	flusher.Flush()

	ch, unsubscribe := s.subscribeBuffered()
	defer unsubscribe()

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := enc.Encode(ev); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if err := enc.Encode(controlMessage("keepalive")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// subscribeBuffered registra un handler que encola eventos en un canal
// con buffer. Si el cliente no drena a tiempo, el evento se descarta —
// el bus nunca se bloquea por un subscriber lento.
func (s *Server) subscribeBuffered() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, streamBuffer)
	unsubscribe := s.bus.Subscribe(func(ev domain.Event) {
		select {
		case ch <- ev:
		default:
			slog.Debug("slow stream subscriber, dropping event", "type", ev.Type)
		}
	})
	return ch, unsubscribe
}
