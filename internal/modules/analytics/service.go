package analytics

import (
	"math"
	"math/rand"
	"time"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/asteway/birrfolio/internal/modules/rates"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// smaWindow is the moving average window applied to historical series.
const smaWindow = 7

// analyticsLookback is how far back birr analytics reads rate history.
const analyticsLookback = 30 * 24 * time.Hour

// stockJitter bounds the simulated daily move at +/-2.5%.
const stockJitter = 0.025

// Periods a historical series can cover, in days.
var periodDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// Simulated Ethiopian equities with reference prices in birr.
var stockUniverse = []struct {
	Symbol string
	Name   string
	Price  float64
}{
	{"AWB", "Awash Bank", 1450},
	{"ABY", "Bank of Abyssinia", 980},
	{"DSH", "Dashen Bank", 1820},
	{"WEG", "Wegagen Bank", 760},
	{"NIB", "Nib International Bank", 890},
	{"UNB", "United Bank", 640},
	{"COP", "Cooperative Bank of Oromia", 530},
	{"ETT", "Ethio Telecom", 310},
	{"EAH", "East African Holding", 2250},
	{"HAB", "Habesha Breweries", 415},
}

// Major pairs shown alongside the birr analytics.
var forexPairs = []struct {
	Pair string
	Rate float64
}{
	{"EUR/USD", 1.0850},
	{"GBP/USD", 1.2720},
	{"USD/JPY", 148.90},
	{"USD/CHF", 0.8890},
	{"AUD/USD", 0.6380},
	{"USD/CAD", 1.3540},
	{"NZD/USD", 0.5890},
	{"EUR/GBP", 0.8530},
	{"EUR/JPY", 161.55},
	{"GBP/JPY", 189.40},
	{"USD/CNY", 7.2700},
	{"USD/TRY", 33.60},
}

// Service computes analytics from rate history, generating simulated data
// where no feed exists.
type Service struct {
	history *rates.HistoryRepository
	rng     *rand.Rand
	log     zerolog.Logger
}

// NewService creates a new analytics service.
func NewService(history *rates.HistoryRepository, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     log.With().Str("service", "analytics").Logger(),
	}
}

// GetOverview assembles the analytics dashboard payload.
func (s *Service) GetOverview() (*Overview, error) {
	birr, err := s.birrAnalytics()
	if err != nil {
		return nil, err
	}

	return &Overview{
		Stocks:    s.stockQuotes(),
		Forex:     s.forexQuotes(),
		Birr:      birr,
		Sentiment: sentimentFrom(birr),
	}, nil
}

// GetHistorical returns a dated series for a pair over one of the supported
// periods, with an SMA overlay.
func (s *Service) GetHistorical(pair, period string) (*HistoricalSeries, error) {
	if pair == "" {
		pair = "USD/ETB"
	}
	if period == "" {
		period = "30d"
	}

	days, ok := periodDays[period]
	if !ok {
		return nil, domain.NewValidationError("Period must be 7d, 30d, or 90d")
	}

	currency := pair
	if len(pair) > 4 && pair[len(pair)-4:] == "/ETB" {
		currency = pair[:len(pair)-4]
	}
	base := rates.BaseRate(currency)
	if base <= 0 {
		return nil, domain.NewValidationError("Unsupported currency pair")
	}

	values := s.syntheticSeries(base, days)
	sma := talib.Sma(values, smaWindow)

	points := make([]HistoricalPoint, days)
	start := time.Now().UTC().AddDate(0, 0, -days+1)
	for i := range values {
		p := HistoricalPoint{
			Date: start.AddDate(0, 0, i).Format("2006-01-02"),
			Rate: values[i],
		}
		// talib leaves the warm-up window as zeros
		if i >= smaWindow-1 {
			v := sma[i]
			p.SMA = &v
		}
		points[i] = p
	}

	return &HistoricalSeries{Pair: pair, Period: period, Points: points}, nil
}

// birrAnalytics reads the recorded USD/ETB history. With no history yet it
// reports the reference rate with a stable trend.
func (s *Service) birrAnalytics() (BirrAnalytics, error) {
	values, err := s.history.RatesSince("USD/ETB", time.Now().Add(-analyticsLookback))
	if err != nil {
		return BirrAnalytics{}, err
	}

	if len(values) < 2 {
		return BirrAnalytics{
			AverageRate: rates.BaseRate("USD"),
			Volatility:  0,
			Trend:       "stable",
			Samples:     len(values),
		}, nil
	}

	mean := stat.Mean(values, nil)
	stddev := stat.StdDev(values, nil)

	// Volatility as a percentage of the mean rate
	volatility := 0.0
	if mean > 0 {
		volatility = stddev / mean * 100
	}

	return BirrAnalytics{
		AverageRate: mean,
		Volatility:  volatility,
		Trend:       trendOf(values, mean),
		Samples:     len(values),
	}, nil
}

// trendOf compares the latest rate to the mean. A rising USD/ETB rate means
// the birr is weakening.
func trendOf(values []float64, mean float64) string {
	latest := values[len(values)-1]
	if mean <= 0 {
		return "stable"
	}
	switch drift := (latest - mean) / mean; {
	case drift > 0.005:
		return "depreciating"
	case drift < -0.005:
		return "appreciating"
	default:
		return "stable"
	}
}

// sentimentFrom scores market mood from the birr analytics. Higher means more
// favorable for birr assets.
func sentimentFrom(birr BirrAnalytics) Sentiment {
	score := 50.0
	factors := []string{}

	switch birr.Trend {
	case "appreciating":
		score += 20
		factors = append(factors, "Birr appreciating against the dollar")
	case "depreciating":
		score -= 20
		factors = append(factors, "Birr depreciating against the dollar")
	default:
		factors = append(factors, "Birr stable against the dollar")
	}

	switch {
	case birr.Volatility > 2:
		score -= 15
		factors = append(factors, "High exchange rate volatility")
	case birr.Volatility > 0.5:
		score -= 5
		factors = append(factors, "Moderate exchange rate volatility")
	default:
		factors = append(factors, "Low exchange rate volatility")
	}

	score = math.Max(0, math.Min(100, score))

	label := "neutral"
	if score >= 65 {
		label = "bullish"
	} else if score <= 35 {
		label = "bearish"
	}

	return Sentiment{Score: score, Label: label, Factors: factors}
}

func (s *Service) stockQuotes() []StockQuote {
	quotes := make([]StockQuote, 0, len(stockUniverse))
	for _, stock := range stockUniverse {
		change := stock.Price * (s.rng.Float64()*2 - 1) * stockJitter
		quotes = append(quotes, StockQuote{
			Symbol:        stock.Symbol,
			Name:          stock.Name,
			Price:         stock.Price + change,
			Change:        change,
			ChangePercent: change / stock.Price * 100,
		})
	}
	return quotes
}

func (s *Service) forexQuotes() []ForexQuote {
	quotes := make([]ForexQuote, 0, len(forexPairs))
	for _, fx := range forexPairs {
		quotes = append(quotes, ForexQuote{
			Pair:      fx.Pair,
			Rate:      fx.Rate * (1 + (s.rng.Float64()*2-1)*0.002),
			Change24h: (s.rng.Float64()*2 - 1) * 1.5,
		})
	}
	return quotes
}

// syntheticSeries generates a plausible daily series around a base rate:
// a slow upward drift plus a sine swing and noise.
func (s *Service) syntheticSeries(base float64, days int) []float64 {
	values := make([]float64, days)
	for i := 0; i < days; i++ {
		drift := base * 0.0005 * float64(i)
		swing := base * 0.01 * math.Sin(float64(i)/5)
		noise := base * 0.004 * (s.rng.Float64()*2 - 1)
		values[i] = base + drift + swing + noise
	}
	return values
}
