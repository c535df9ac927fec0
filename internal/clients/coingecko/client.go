// Package coingecko provides crypto price fetching from the CoinGecko free API.
package coingecko

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/asteway/birrfolio/internal/clientdata"
	"github.com/rs/zerolog"
)

// coinIDs lists the CoinGecko coin ids tracked by the dashboard.
var coinIDs = []string{
	"bitcoin", "ethereum", "ripple", "binancecoin", "solana", "cardano",
	"dogecoin", "polkadot", "chainlink", "polygon-ecosystem-token",
	"avalanche-2", "uniswap", "tron", "cosmos",
}

// coinMeta maps CoinGecko ids to display symbol and name.
var coinMeta = map[string]struct {
	Symbol string
	Name   string
}{
	"bitcoin":                  {"BTC", "Bitcoin"},
	"ethereum":                 {"ETH", "Ethereum"},
	"ripple":                   {"XRP", "XRP"},
	"binancecoin":              {"BNB", "BNB"},
	"solana":                   {"SOL", "Solana"},
	"cardano":                  {"ADA", "Cardano"},
	"dogecoin":                 {"DOGE", "Dogecoin"},
	"polkadot":                 {"DOT", "Polkadot"},
	"chainlink":                {"LINK", "Chainlink"},
	"polygon-ecosystem-token":  {"MATIC", "Polygon"},
	"avalanche-2":              {"AVAX", "Avalanche"},
	"uniswap":                  {"UNI", "Uniswap"},
	"tron":                     {"TRX", "TRON"},
	"cosmos":                   {"ATOM", "Cosmos"},
}

// CoinPrice holds a single coin's USD price and 24h change.
type CoinPrice struct {
	Symbol    string  `msgpack:"symbol" json:"symbol"`
	Name      string  `msgpack:"name" json:"name"`
	PriceUSD  float64 `msgpack:"price_usd" json:"price_usd"`
	Change24h float64 `msgpack:"change_24h" json:"change_24h"`
}

// Client for the CoinGecko simple price API
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new CoinGecko client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.coingecko.com/api/v3",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "coingecko").Logger(),
		cacheRepo: cacheRepo,
	}
}

// SetBaseURL overrides the API base URL (used in tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

const cacheKey = "simple_price"

// SimplePrices fetches USD prices with 24h change for the tracked coins.
// Cache-first with a short TTL; falls back to stale cache and finally to a
// static table so the dashboard always has something to show.
func (c *Client) SimplePrices() ([]CoinPrice, error) {
	if c.cacheRepo != nil {
		var cached []CoinPrice
		found, err := c.cacheRepo.GetIfFresh("coingecko", cacheKey, &cached)
		if err == nil && found {
			c.log.Debug().Msg("Cache hit")
			return cached, nil
		}
	}

	prices, err := c.fetchSimplePrices()
	if err != nil {
		if stale, ok := c.getStaleFromCache(); ok {
			c.log.Warn().Err(err).Msg("API failed, using stale cached crypto prices")
			return stale, nil
		}
		c.log.Warn().Err(err).Msg("API failed with no cache, using static fallback prices")
		return fallbackPrices(), nil
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("coingecko", cacheKey, prices, clientdata.TTLCryptoPrices); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache crypto prices")
		}
	}

	c.log.Info().Int("count", len(prices)).Msg("Fetched crypto prices")

	return prices, nil
}

func (c *Client) fetchSimplePrices() ([]CoinPrice, error) {
	params := url.Values{}
	ids := ""
	for i, id := range coinIDs {
		if i > 0 {
			ids += ","
		}
		ids += id
	}
	params.Set("ids", ids)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())
	c.log.Debug().Str("url", reqURL).Msg("Fetching crypto prices")

	resp, err := c.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result map[string]struct {
		USD       float64 `json:"usd"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("empty price table in response")
	}

	prices := make([]CoinPrice, 0, len(result))
	for _, id := range coinIDs {
		data, ok := result[id]
		if !ok {
			continue
		}
		meta := coinMeta[id]
		prices = append(prices, CoinPrice{
			Symbol:    meta.Symbol,
			Name:      meta.Name,
			PriceUSD:  data.USD,
			Change24h: data.Change24h,
		})
	}

	return prices, nil
}

func (c *Client) getStaleFromCache() ([]CoinPrice, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached []CoinPrice
	found, err := c.cacheRepo.Get("coingecko", cacheKey, &cached)
	if err != nil || !found {
		return nil, false
	}

	return cached, true
}

// fallbackPrices returns a static price table for when the API is down and
// nothing is cached yet.
func fallbackPrices() []CoinPrice {
	return []CoinPrice{
		{Symbol: "BTC", Name: "Bitcoin", PriceUSD: 108134, Change24h: 2.1},
		{Symbol: "ETH", Name: "Ethereum", PriceUSD: 3891, Change24h: 1.8},
		{Symbol: "XRP", Name: "XRP", PriceUSD: 3.21, Change24h: 4.2},
	}
}
