package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/bottrack/internal/adapters/storage"
	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/events"
	"github.com/alejandrodnm/bottrack/internal/monitor"
	"github.com/alejandrodnm/bottrack/internal/server"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type stubResolver struct {
	resolutions map[string]domain.MarketResolution
}

func (r *stubResolver) CheckResolution(_ context.Context, marketID string) domain.MarketResolution {
	return r.resolutions[marketID]
}

type stubBalances struct {
	balances domain.Balances
}

func (b *stubBalances) GetBalances(_ context.Context, _ string) domain.Balances {
	return b.balances
}

// --- harness ---

type harness struct {
	srv      *httptest.Server
	store    *storage.SQLiteStorage
	bus      *events.Bus
	resolver *stubResolver
	events   *[]domain.Event
}

func newHarness(t *testing.T, cfg server.Config) *harness {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus()
	var captured []domain.Event
	bus.Subscribe(func(ev domain.Event) { captured = append(captured, ev) })

	resolver := &stubResolver{resolutions: make(map[string]domain.MarketResolution)}
	balances := &stubBalances{balances: domain.Balances{USDC: 100, Matic: 1}}

	monCfg := monitor.DefaultConfig()
	monCfg.CourtesyDelay = 0
	mon := monitor.New(monCfg, store, resolver, balances, bus, nil)

	s := server.New(cfg, store, balances, mon, bus)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &harness{srv: srv, store: store, bus: bus, resolver: resolver, events: &captured}
}

func (h *harness) post(t *testing.T, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return h.do(t, req)
}

func (h *harness) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	require.NoError(t, err)
	return h.do(t, req)
}

func (h *harness) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func validWebhook(wallet string) map[string]any {
	return map[string]any{
		"botName":        "Arb Bot",
		"walletAddress":  wallet,
		"marketId":       "0xcond",
		"marketQuestion": "Will X happen?",
		"outcome":        "yes",
		"costUsdc":       25.0,
		"shares":         50.0,
		"potentialWin":   50.0,
		"txHash":         "0xtx",
	}
}

const wallet = "0x1234567890abcdef1234567890abcdef12345678"

func defaultCfg() server.Config {
	return server.Config{Heartbeat: time.Hour}
}

// esperar a que el resumen refleje lo persistido: los handlers son
// síncronos, así que basta con re-fetchear.
func (h *harness) tradeCount(t *testing.T) int {
	t.Helper()
	_, body := h.get(t, "/api/trades")
	pagination := body["pagination"].(map[string]any)
	return int(pagination["total"].(float64))
}
