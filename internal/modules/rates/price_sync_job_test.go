package rates

import (
	"testing"

	"github.com/asteway/birrfolio/internal/clients/coingecko"
	"github.com/asteway/birrfolio/internal/modules/portfolio"
	internaltesting "github.com/asteway/birrfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSyncJob(t *testing.T) {
	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	defer cleanup()
	conn := db.Conn()
	log := zerolog.Nop()

	_, err := conn.Exec(
		"INSERT INTO users (id, email, password_hash, name) VALUES (?, ?, ?, ?)",
		"user-1", "user1@example.com", "x", "Test User",
	)
	require.NoError(t, err)

	holdings := portfolio.NewHoldingRepository(conn, log)
	transactions := portfolio.NewTransactionRepository(conn, log)
	portfolioService := portfolio.NewService(holdings, transactions, log)

	btc, err := portfolioService.CreateHolding("user-1", portfolio.CreateHoldingData{
		Symbol: "BTC", Name: "Bitcoin", AssetType: portfolio.AssetTypeCrypto,
		Amount: 2, AvgBuyPrice: 5000000,
	})
	require.NoError(t, err)

	usd, err := portfolioService.CreateHolding("user-1", portfolio.CreateHoldingData{
		Symbol: "USD", Name: "US Dollar", AssetType: portfolio.AssetTypeFiat,
		Amount: 100, AvgBuyPrice: 130,
	})
	require.NoError(t, err)

	stock, err := portfolioService.CreateHolding("user-1", portfolio.CreateHoldingData{
		Symbol: "CBE", Name: "Commercial Bank Share", AssetType: portfolio.AssetTypeStock,
		Amount: 10, AvgBuyPrice: 1000,
	})
	require.NoError(t, err)

	fiat := &stubFiatFeed{rates: map[string]float64{"ETB": 100, "USD": 1}}
	crypto := &stubCryptoFeed{prices: []coingecko.CoinPrice{
		{Symbol: "BTC", Name: "Bitcoin", PriceUSD: 60000},
	}}
	history := NewHistoryRepository(conn, log)
	ratesService := NewService(fiat, crypto, history, log)

	job := NewPriceSyncJob(ratesService, portfolioService, log)
	require.NoError(t, job.Run())

	refreshed, err := portfolioService.GetHoldings("user-1")
	require.NoError(t, err)
	require.Len(t, refreshed, 3)

	byID := map[string]portfolio.Holding{}
	for _, h := range refreshed {
		byID[h.ID] = h
	}

	// Crypto priced from the feed: 60000 USD * 100 birr
	assert.Equal(t, 6000000.0, byID[btc.ID].CurrentPrice)

	// Fiat priced at the generated mid, within jitter of 100 birr
	assert.InDelta(t, 100, byID[usd.ID].CurrentPrice, 100*rateVariation*1.01)

	// Stocks keep their manual price
	assert.Equal(t, 1000.0, byID[stock.ID].CurrentPrice)
}
