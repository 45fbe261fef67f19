package server_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStream_AckThenEvents(t *testing.T) {
	h := newHarness(t, defaultCfg())

	resp, err := http.Get(h.srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)

	// Primera línea: ack de conexión.
	require.True(t, scanner.Scan())
	var ack map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &ack))
	assert.Equal(t, "connected", ack["type"])

	// Un evento emitido tras conectar llega como línea JSON.
	h.bus.Emit(domain.Event{
		Type: domain.EventBalanceUpdated,
		Data: domain.BalanceUpdate{BotID: "b1", BalanceUSDC: 42},
	})

	require.True(t, scanner.Scan())
	var ev map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
	assert.Equal(t, "balance_updated", ev["type"])
	data := ev["data"].(map[string]any)
	assert.Equal(t, float64(42), data["balanceUsdc"])
}

func TestEventStream_UnsubscribesOnDisconnect(t *testing.T) {
	h := newHarness(t, defaultCfg())

	// 1 subscriber de test del harness.
	base := h.bus.Subscribers()

	resp, err := http.Get(h.srv.URL + "/api/events")
	require.NoError(t, err)

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan()) // ack: la suscripción ya está hecha
	assert.Equal(t, base+1, h.bus.Subscribers())

	resp.Body.Close()

	// La baja ocurre cuando el handler observa el cierre; emitir fuerza
	// el write que falla y termina el handler.
	assert.Eventually(t, func() bool {
		h.bus.Emit(domain.Event{Type: domain.EventTradeCreated})
		return h.bus.Subscribers() == base
	}, 2*time.Second, 50*time.Millisecond)
}

func TestEventStreamWS(t *testing.T) {
	h := newHarness(t, defaultCfg())

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/events/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	var ack map[string]any
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "connected", ack["type"])

	h.bus.Emit(domain.Event{Type: domain.EventTradeCreated, Data: domain.Trade{ID: "t1"}})

	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "trade_created", ev["type"])
}
