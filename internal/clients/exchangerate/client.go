// Package exchangerate provides currency exchange rate fetching and caching functionality.
package exchangerate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/asteway/birrfolio/internal/clientdata"
	"github.com/rs/zerolog"
)

// Client for exchangerate-api.com
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new exchangerate-api.com client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.exchangerate-api.com/v4/latest",
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "exchangerate-api").Logger(),
		cacheRepo: cacheRepo,
	}
}

// SetBaseURL overrides the API base URL (used in tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// cachedRates is the structure stored in the cache, one entry per base currency.
type cachedRates struct {
	Rates map[string]float64 `msgpack:"rates"`
}

// Rates fetches the full rate table for a base currency with cache.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) Rates(base string) (map[string]float64, error) {
	cacheKey := "base:" + base

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		var cached cachedRates
		found, err := c.cacheRepo.GetIfFresh("exchangerate", cacheKey, &cached)
		if err == nil && found {
			c.log.Debug().Str("base", base).Msg("Cache hit")
			return cached.Rates, nil
		}
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, base)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	resp, err := c.client.Get(url)
	if err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Str("base", base).Msg("API failed, using stale cached rates")
			return stale, nil
		}
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Int("status", resp.StatusCode).Str("base", base).Msg("API error, using stale cached rates")
			return stale, nil
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Err(err).Str("base", base).Msg("Failed to parse API response, using stale cached rates")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Rates) == 0 {
		if stale, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().Str("base", base).Msg("Empty rate table in API response, using stale cached rates")
			return stale, nil
		}
		return nil, fmt.Errorf("no rates returned for base %s", base)
	}

	// Cache persistently
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("exchangerate", cacheKey, cachedRates{Rates: result.Rates}, clientdata.TTLExchangeRate); err != nil {
			c.log.Warn().Err(err).Str("base", base).Msg("Failed to cache exchange rates")
		}
	}

	c.log.Info().Str("base", base).Int("count", len(result.Rates)).Msg("Fetched rates")

	return result.Rates, nil
}

// GetRate fetches a single exchange rate with cache.
func (c *Client) GetRate(fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	rates, err := c.Rates(fromCurrency)
	if err != nil {
		return 0, err
	}

	rate, exists := rates[toCurrency]
	if !exists {
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}

	return rate, nil
}

// getStaleFromCache retrieves cached rates even if expired.
// Use this as a fallback when API calls fail - stale data is better than no data.
func (c *Client) getStaleFromCache(cacheKey string) (map[string]float64, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached cachedRates
	found, err := c.cacheRepo.Get("exchangerate", cacheKey, &cached)
	if err != nil || !found {
		return nil, false
	}

	return cached.Rates, true
}
