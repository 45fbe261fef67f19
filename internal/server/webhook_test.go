package server_test

import (
	"net/http"
	"testing"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_CreatesTradeAndAutoProvisionsBot(t *testing.T) {
	h := newHarness(t, defaultCfg())

	resp, body := h.post(t, "/api/webhook/trade", validWebhook(wallet), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	trade := body["trade"].(map[string]any)
	assert.Equal(t, "PENDING", trade["status"])
	assert.Equal(t, "YES", trade["outcome"]) // normalizado a mayúsculas
	assert.Equal(t, "0xcond", trade["marketId"])

	bot, err := h.store.GetBotByWallet(t.Context(), wallet)
	require.NoError(t, err)
	assert.Equal(t, "Arb Bot", bot.Name)

	// Evento trade_created emitido síncronamente con la creación.
	require.Len(t, *h.events, 1)
	assert.Equal(t, domain.EventTradeCreated, (*h.events)[0].Type)
}

func TestWebhook_ReusesExistingBot(t *testing.T) {
	h := newHarness(t, defaultCfg())

	resp, _ := h.post(t, "/api/webhook/trade", validWebhook(wallet), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = h.post(t, "/api/webhook/trade", validWebhook(wallet), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	bots, err := h.store.ListBots(t.Context())
	require.NoError(t, err)
	assert.Len(t, bots, 1)
	assert.Equal(t, 2, h.tradeCount(t))
}

func TestWebhook_DefaultBotName(t *testing.T) {
	h := newHarness(t, defaultCfg())

	payload := validWebhook(wallet)
	delete(payload, "botName")
	resp, _ := h.post(t, "/api/webhook/trade", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	bot, err := h.store.GetBotByWallet(t.Context(), wallet)
	require.NoError(t, err)
	assert.Equal(t, "Bot 0x123456", bot.Name)
}

func TestWebhook_MissingFields(t *testing.T) {
	h := newHarness(t, defaultCfg())

	payload := validWebhook(wallet)
	delete(payload, "marketId")
	resp, body := h.post(t, "/api/webhook/trade", payload, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "missing required fields")
}

func TestWebhook_InvalidWalletFormat(t *testing.T) {
	h := newHarness(t, defaultCfg())

	payload := validWebhook("not-a-wallet")
	resp, body := h.post(t, "/api/webhook/trade", payload, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "invalid wallet address")
}

func TestWebhook_SecretEnforced(t *testing.T) {
	cfg := defaultCfg()
	cfg.WebhookSecret = "hush"
	h := newHarness(t, cfg)

	resp, _ := h.post(t, "/api/webhook/trade", validWebhook(wallet), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.post(t, "/api/webhook/trade", validWebhook(wallet),
		map[string]string{"Authorization": "Bearer hush"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestWebhook_SecretOptional(t *testing.T) {
	h := newHarness(t, server.Config{})

	resp, _ := h.post(t, "/api/webhook/trade", validWebhook(wallet), nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
