// Package rates produces ETB exchange rates for fiat currencies and crypto
// assets, records rate history, and keeps holding prices in sync.
package rates

// FiatRate is one currency quoted against the birr. BuyRate and SellRate
// straddle the mid rate by the bank spread.
type FiatRate struct {
	Currency  string  `json:"currency"`
	Name      string  `json:"name"`
	Rate      float64 `json:"rate"`
	BuyRate   float64 `json:"buy_rate"`
	SellRate  float64 `json:"sell_rate"`
	Change24h float64 `json:"change_24h"`
	Source    string  `json:"source"`
}

// CryptoRate is one crypto asset quoted in USD and birr.
type CryptoRate struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"price_usd"`
	PriceETB  float64 `json:"price_etb"`
	Change24h float64 `json:"change_24h"`
}

// RateSnapshot is one recorded rate_history row.
type RateSnapshot struct {
	ID         int64   `json:"id"`
	Pair       string  `json:"pair"`
	Rate       float64 `json:"rate"`
	RecordedAt string  `json:"recorded_at"`
}
