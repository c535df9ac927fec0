package rates

import (
	"fmt"
	"time"

	"github.com/asteway/birrfolio/internal/clients/coingecko"
	"github.com/rs/zerolog"
)

// fallbackUSDToETB is used when no live or cached USD rate is available.
const fallbackUSDToETB = 135.0

// FiatFeed provides live exchange rates keyed by currency code for a base
// currency.
type FiatFeed interface {
	Rates(base string) (map[string]float64, error)
}

// CryptoFeed provides crypto spot prices in USD.
type CryptoFeed interface {
	SimplePrices() ([]coingecko.CoinPrice, error)
}

// Service assembles birr quotes from the live feeds, falling back to the
// reference table when a feed is down.
type Service struct {
	fiat      FiatFeed
	crypto    CryptoFeed
	history   *HistoryRepository
	generator *Generator
	log       zerolog.Logger
}

// NewService creates a new rates service.
func NewService(fiat FiatFeed, crypto CryptoFeed, history *HistoryRepository, log zerolog.Logger) *Service {
	return &Service{
		fiat:      fiat,
		crypto:    crypto,
		history:   history,
		generator: NewGenerator(time.Now().UnixNano()),
		log:       log.With().Str("service", "rates").Logger(),
	}
}

// FiatRates returns birr quotes for every supported currency. Live mids are
// derived from the USD-based feed when it answers; otherwise the reference
// table stands in. Never fails, a dead feed degrades to reference quotes.
func (s *Service) FiatRates() []FiatRate {
	return s.generator.Generate(s.liveMids())
}

// CryptoRates returns crypto quotes in USD and birr.
func (s *Service) CryptoRates() ([]CryptoRate, error) {
	prices, err := s.crypto.SimplePrices()
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto prices: %w", err)
	}

	etb := s.USDToETB()
	quotes := make([]CryptoRate, 0, len(prices))
	for _, p := range prices {
		quotes = append(quotes, CryptoRate{
			Symbol:    p.Symbol,
			Name:      p.Name,
			PriceUSD:  p.PriceUSD,
			PriceETB:  p.PriceUSD * etb,
			Change24h: p.Change24h,
		})
	}
	return quotes, nil
}

// USDToETB returns the current birr-per-dollar rate, live when possible.
func (s *Service) USDToETB() float64 {
	if mids := s.liveMids(); mids != nil {
		if rate, ok := mids["USD"]; ok && rate > 0 {
			return rate
		}
	}
	if rate := BaseRate("USD"); rate > 0 {
		return rate
	}
	return fallbackUSDToETB
}

// History returns recorded snapshots for a pair since the cutoff.
func (s *Service) History(pair string, since time.Time) ([]RateSnapshot, error) {
	return s.history.SnapshotsSince(pair, since)
}

// RecordSnapshot writes the current mids into rate history, one row per
// currency pair.
func (s *Service) RecordSnapshot() error {
	mids := s.liveMids()
	snapshots := make(map[string]float64, len(baseRates))
	for _, code := range Currencies() {
		mid, ok := mids[code]
		if !ok || mid <= 0 {
			mid = BaseRate(code)
		}
		snapshots[code+"/ETB"] = mid
	}
	return s.history.RecordBatch(snapshots)
}

// liveMids converts the USD-based feed into birr-per-currency mids.
// Returns nil when the feed or the ETB rate is unavailable.
func (s *Service) liveMids() map[string]float64 {
	if s.fiat == nil {
		return nil
	}

	feed, err := s.fiat.Rates("USD")
	if err != nil {
		s.log.Warn().Err(err).Msg("Live rate feed unavailable, using reference rates")
		return nil
	}

	etbPerUSD, ok := feed["ETB"]
	if !ok || etbPerUSD <= 0 {
		s.log.Warn().Msg("Feed has no ETB rate, using reference rates")
		return nil
	}

	mids := make(map[string]float64, len(baseRates))
	for _, code := range Currencies() {
		if code == "USD" {
			mids[code] = etbPerUSD
			continue
		}
		perUSD, ok := feed[code]
		if !ok || perUSD <= 0 {
			continue
		}
		// feed quotes are units of currency per USD; cross through ETB
		mids[code] = etbPerUSD / perUSD
	}
	return mids
}
