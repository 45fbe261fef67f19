package etherscan

// client.go — balances de wallet vía Etherscan V2 (PolygonScan se fusionó
// en Etherscan; se consulta con chainid=137).
//
// Cada lectura degrada en soft a 0 ante cualquier fallo: una caída del
// explorer produce una lectura de balance cero, nunca bloquea la gestión
// de bots ni propaga error al motor de reconciliación.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.etherscan.io/v2/api"

	polygonChainID = "137"

	// USDC.e (PoS) — el USDC bridged desde Ethereum que usa Polymarket.
	usdcContract = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	usdcDecimals   = 1e6
	nativeDecimals = 1e18

	// Free tier de Etherscan: 5 req/s.
	requestsPerSec = 5
)

// Client consulta balances contra el API de Etherscan V2.
type Client struct {
	http    *http.Client
	apiBase string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
// Si apiBase está vacío, usa el URL de producción. apiKey puede ser "".
func NewClient(apiBase, apiKey string) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		apiBase: apiBase,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(requestsPerSec, requestsPerSec),
	}
}

// GetBalances devuelve los balances USDC y POL de la wallet, consultados
// en paralelo. Cada lectura falla en soft a 0 de forma independiente.
func (c *Client) GetBalances(ctx context.Context, walletAddress string) domain.Balances {
	var balances domain.Balances

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		balances.USDC = c.usdcBalance(ctx, walletAddress)
	}()
	go func() {
		defer wg.Done()
		balances.Matic = c.nativeBalance(ctx, walletAddress)
	}()
	wg.Wait()

	return balances
}

// usdcBalance devuelve el balance USDC.e en unidades humanas (6 decimales).
func (c *Client) usdcBalance(ctx context.Context, walletAddress string) float64 {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokenbalance")
	params.Set("contractaddress", usdcContract)
	params.Set("address", walletAddress)
	params.Set("tag", "latest")

	raw, err := c.query(ctx, params)
	if err != nil {
		slog.Warn("usdc balance lookup failed", "wallet", walletAddress, "err", err)
		return 0
	}
	return raw / usdcDecimals
}

// nativeBalance devuelve el balance POL en unidades humanas (18 decimales).
func (c *Client) nativeBalance(ctx context.Context, walletAddress string) float64 {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", walletAddress)
	params.Set("tag", "latest")

	raw, err := c.query(ctx, params)
	if err != nil {
		slog.Warn("native balance lookup failed", "wallet", walletAddress, "err", err)
		return 0
	}
	return raw / nativeDecimals
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// query hace un GET al API y parsea el result como entero en unidades
// mínimas. El resultado puede exceder int64 (wei), así que se parsea
// directamente a float64.
func (c *Client) query(ctx context.Context, params url.Values) (float64, error) {
	params.Set("chainid", polygonChainID)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	if body.Status != "1" {
		return 0, fmt.Errorf("api error: %s", body.Message)
	}

	raw, err := strconv.ParseFloat(body.Result, 64)
	if err != nil {
		return 0, fmt.Errorf("parse result %q: %w", body.Result, err)
	}
	return raw, nil
}
