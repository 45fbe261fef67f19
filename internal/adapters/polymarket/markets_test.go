package polymarket_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/bottrack/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketJSON(closed bool, winners ...string) string {
	tokens := `{"token_id":"t1","outcome":"Yes","price":1.0,"winner":%t},
		{"token_id":"t2","outcome":"No","price":0.0,"winner":%t}`
	yesWins := false
	noWins := false
	for _, w := range winners {
		if w == "Yes" {
			yesWins = true
		}
		if w == "No" {
			noWins = true
		}
	}
	return fmt.Sprintf(`{
		"condition_id": "0xcond",
		"question": "Will X happen?",
		"active": false,
		"closed": %t,
		"tokens": [`+tokens+`]
	}`, closed, yesWins, noWins)
}

func TestCheckResolution_ClosedWithWinner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/0xcond", r.URL.Path)
		fmt.Fprint(w, marketJSON(true, "Yes"))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xcond")

	require.True(t, res.Resolved)
	assert.Equal(t, "Yes", res.WinningOutcome)
	assert.False(t, res.ResolutionTime.IsZero())
}

func TestCheckResolution_ClosedWithoutWinner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, marketJSON(true))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xcond")

	assert.False(t, res.Resolved)
	assert.Empty(t, res.WinningOutcome)
}

func TestCheckResolution_OpenMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, marketJSON(false, "Yes"))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xcond")

	assert.False(t, res.Resolved)
}

func TestCheckResolution_TwoWinnersIsNotResolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, marketJSON(true, "Yes", "No"))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xcond")

	assert.False(t, res.Resolved)
}

func TestCheckResolution_SoftFailsOnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xmissing")

	assert.False(t, res.Resolved)
}

func TestCheckResolution_SoftFailsOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	res := client.CheckResolution(context.Background(), "0xcond")

	assert.False(t, res.Resolved)
}

func TestGetMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, marketJSON(true, "No"))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL)
	info, err := client.GetMarket(context.Background(), "0xcond")
	require.NoError(t, err)

	assert.Equal(t, "0xcond", info.ID)
	assert.Equal(t, "Will X happen?", info.Question)
	assert.True(t, info.Resolved)
	assert.Equal(t, "No", info.Outcome)
}
