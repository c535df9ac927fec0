package rates

import (
	"strings"

	"github.com/asteway/birrfolio/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// PriceSyncJob refreshes holding prices from the rate feeds. Crypto holdings
// get the birr spot price, fiat holdings the birr mid rate. Stocks have no
// feed and keep their manual price.
type PriceSyncJob struct {
	rates     *Service
	portfolio *portfolio.Service
	log       zerolog.Logger
}

// NewPriceSyncJob creates a new price sync job.
func NewPriceSyncJob(rates *Service, portfolioService *portfolio.Service, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		rates:     rates,
		portfolio: portfolioService,
		log:       log.With().Str("job", "price_sync").Logger(),
	}
}

// Run updates every holding that has a matching feed price.
func (j *PriceSyncJob) Run() error {
	holdings, err := j.portfolio.ListAllHoldings()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list holdings")
		return err
	}
	if len(holdings) == 0 {
		return nil
	}

	prices := j.feedPrices()
	updated := 0
	for _, h := range holdings {
		price, ok := prices[h.AssetType+":"+strings.ToUpper(h.Symbol)]
		if !ok || price <= 0 {
			continue
		}
		if err := j.portfolio.UpdateHoldingPrice(h.ID, price); err != nil {
			j.log.Error().Err(err).Str("holding_id", h.ID).Msg("Failed to update holding price")
			continue
		}
		updated++
	}

	j.log.Info().Int("holdings", len(holdings)).Int("updated", updated).Msg("Price sync complete")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// feedPrices builds a lookup of birr prices keyed by "asset_type:SYMBOL".
func (j *PriceSyncJob) feedPrices() map[string]float64 {
	prices := map[string]float64{}

	for _, r := range j.rates.FiatRates() {
		prices["fiat:"+r.Currency] = r.Rate
	}

	crypto, err := j.rates.CryptoRates()
	if err != nil {
		j.log.Warn().Err(err).Msg("Crypto prices unavailable for sync")
		return prices
	}
	for _, c := range crypto {
		prices["crypto:"+strings.ToUpper(c.Symbol)] = c.PriceETB
	}
	return prices
}
