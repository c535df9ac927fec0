// Package analytics derives market statistics: birr volatility and trend from
// recorded rate history, market sentiment, and historical series with a
// moving-average overlay.
package analytics

// StockQuote is a simulated Ethiopian equity quote. There is no public
// exchange feed, so these are generated around reference prices.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// ForexQuote is one major pair quote.
type ForexQuote struct {
	Pair      string  `json:"pair"`
	Rate      float64 `json:"rate"`
	Change24h float64 `json:"change_24h"`
}

// BirrAnalytics summarizes the recorded USD/ETB history.
type BirrAnalytics struct {
	AverageRate float64 `json:"average_rate"`
	Volatility  float64 `json:"volatility"`
	Trend       string  `json:"trend"`
	Samples     int     `json:"samples"`
}

// Sentiment is a coarse market mood derived from birr analytics.
type Sentiment struct {
	Score   float64  `json:"score"`
	Label   string   `json:"label"`
	Factors []string `json:"factors"`
}

// Overview bundles everything the analytics dashboard shows.
type Overview struct {
	Stocks    []StockQuote `json:"stocks"`
	Forex     []ForexQuote `json:"forex"`
	Birr      BirrAnalytics `json:"birr"`
	Sentiment Sentiment    `json:"sentiment"`
}

// HistoricalPoint is one day in a historical series. SMA is nil until enough
// points exist for the moving average window.
type HistoricalPoint struct {
	Date string   `json:"date"`
	Rate float64  `json:"rate"`
	SMA  *float64 `json:"sma"`
}

// HistoricalSeries is a dated rate series for one pair.
type HistoricalSeries struct {
	Pair   string            `json:"pair"`
	Period string            `json:"period"`
	Points []HistoricalPoint `json:"points"`
}
