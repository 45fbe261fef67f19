package etherscan_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/bottrack/internal/adapters/etherscan"
	"github.com/stretchr/testify/assert"
)

// fakeExplorer responde según action: tokenbalance → usdcRaw, balance → nativeRaw.
func fakeExplorer(t *testing.T, usdcRaw, nativeRaw string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "137", r.URL.Query().Get("chainid"))

		result := nativeRaw
		if r.URL.Query().Get("action") == "tokenbalance" {
			result = usdcRaw
		}
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":"%s"}`, result)
	}))
}

func TestGetBalances_Scaling(t *testing.T) {
	// 1 USDC en unidades de 6 decimales, 1 POL en wei.
	srv := fakeExplorer(t, "1000000", "1000000000000000000")
	defer srv.Close()

	client := etherscan.NewClient(srv.URL, "")
	balances := client.GetBalances(context.Background(), "0xwallet")

	assert.InDelta(t, 1.0, balances.USDC, 1e-9)
	assert.InDelta(t, 1.0, balances.Matic, 1e-9)
}

func TestGetBalances_FractionalAmounts(t *testing.T) {
	srv := fakeExplorer(t, "1234560000", "500000000000000000")
	defer srv.Close()

	client := etherscan.NewClient(srv.URL, "")
	balances := client.GetBalances(context.Background(), "0xwallet")

	assert.InDelta(t, 1234.56, balances.USDC, 1e-6)
	assert.InDelta(t, 0.5, balances.Matic, 1e-9)
}

func TestGetBalances_APIErrorSoftFailsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
	}))
	defer srv.Close()

	client := etherscan.NewClient(srv.URL, "")
	balances := client.GetBalances(context.Background(), "0xwallet")

	assert.Zero(t, balances.USDC)
	assert.Zero(t, balances.Matic)
}

func TestGetBalances_MalformedResultSoftFailsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"1","message":"OK","result":"not-a-number"}`)
	}))
	defer srv.Close()

	client := etherscan.NewClient(srv.URL, "")
	balances := client.GetBalances(context.Background(), "0xwallet")

	assert.Zero(t, balances.USDC)
	assert.Zero(t, balances.Matic)
}

func TestGetBalances_LegsFailIndependently(t *testing.T) {
	// tokenbalance responde bien, balance nativo devuelve 500.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "tokenbalance" {
			fmt.Fprint(w, `{"status":"1","message":"OK","result":"2500000"}`)
			return
		}
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := etherscan.NewClient(srv.URL, "")
	balances := client.GetBalances(context.Background(), "0xwallet")

	assert.InDelta(t, 2.5, balances.USDC, 1e-9)
	assert.Zero(t, balances.Matic)
}

func TestNewClient_DefaultBase(t *testing.T) {
	// Solo comprueba que la construcción con defaults no revienta.
	assert.NotNil(t, etherscan.NewClient("", "key"))
}
