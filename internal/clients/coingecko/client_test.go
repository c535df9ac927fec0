package coingecko

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asteway/birrfolio/internal/clientdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE coingecko (key TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE exchangerate (pair TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);`)
	require.NoError(t, err)

	return clientdata.NewRepository(db)
}

func TestSimplePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 108134, "usd_24h_change": 2.1},
			"ethereum": {"usd": 3891, "usd_24h_change": -1.2}
		}`))
	}))
	defer server.Close()

	client := NewClient(newCacheRepo(t), zerolog.Nop())
	client.SetBaseURL(server.URL)

	prices, err := client.SimplePrices()
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Order follows the tracked coin list
	assert.Equal(t, "BTC", prices[0].Symbol)
	assert.InDelta(t, 108134, prices[0].PriceUSD, 0.001)
	assert.InDelta(t, 2.1, prices[0].Change24h, 0.001)
	assert.Equal(t, "ETH", prices[1].Symbol)
}

func TestSimplePricesCacheHit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 100000, "usd_24h_change": 0.5}}`))
	}))
	defer server.Close()

	client := NewClient(newCacheRepo(t), zerolog.Nop())
	client.SetBaseURL(server.URL)

	_, err := client.SimplePrices()
	require.NoError(t, err)

	prices, err := client.SimplePrices()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	require.Len(t, prices, 1)
	assert.InDelta(t, 100000, prices[0].PriceUSD, 0.001)
}

func TestSimplePricesStaleFallback(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()

	cacheRepo := newCacheRepo(t)

	// Seed an expired cache entry
	stale := []CoinPrice{{Symbol: "BTC", Name: "Bitcoin", PriceUSD: 99999, Change24h: 1.0}}
	require.NoError(t, cacheRepo.Store("coingecko", cacheKey, stale, -1))

	client := NewClient(cacheRepo, zerolog.Nop())
	client.SetBaseURL(failing.URL)

	prices, err := client.SimplePrices()
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.InDelta(t, 99999, prices[0].PriceUSD, 0.001)
}

func TestSimplePricesStaticFallback(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	client := NewClient(nil, zerolog.Nop())
	client.SetBaseURL(failing.URL)

	prices, err := client.SimplePrices()
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.Equal(t, "BTC", prices[0].Symbol)
	assert.InDelta(t, 108134, prices[0].PriceUSD, 0.001)
}
