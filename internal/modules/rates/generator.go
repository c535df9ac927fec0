package rates

import (
	"math/rand"
	"sort"
)

// Reference mid rates in birr per unit of currency. Used directly when the
// live rate feed is unavailable, and as the currency universe when it is.
var baseRates = map[string]float64{
	"USD": 138.5,
	"EUR": 156.5,
	"GBP": 176.2,
	"CNY": 19.05,
	"JPY": 0.93,
	"CAD": 102.3,
	"AUD": 88.4,
	"CHF": 155.8,
	"SAR": 36.93,
	"AED": 37.72,
	"KWD": 455.2,
	"QAR": 38.05,
	"INR": 1.65,
	"TRY": 4.12,
}

var currencyNames = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"CNY": "Chinese Yuan",
	"JPY": "Japanese Yen",
	"CAD": "Canadian Dollar",
	"AUD": "Australian Dollar",
	"CHF": "Swiss Franc",
	"SAR": "Saudi Riyal",
	"AED": "UAE Dirham",
	"KWD": "Kuwaiti Dinar",
	"QAR": "Qatari Riyal",
	"INR": "Indian Rupee",
	"TRY": "Turkish Lira",
}

// RateSources are the venues a generated quote is attributed to.
var RateSources = []string{"XE.com", "CBE", "Dashen Bank", "Awash Bank", "Abyssinia Bank"}

const (
	// rateVariation jitters the mid rate by up to +/-1% per generation
	rateVariation = 0.01

	// bankSpread separates buy and sell by 2% around the mid
	bankSpread = 0.02

	// changeRange bounds the simulated 24h change at +/-2%
	changeRange = 0.02
)

// Generator turns mid rates into full quotes with spread, jitter, and a
// source attribution.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the given source.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Currencies returns the supported currency codes in stable order.
func Currencies() []string {
	codes := make([]string, 0, len(baseRates))
	for code := range baseRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// BaseRate returns the reference mid rate for a currency, or 0 when the
// currency is not supported.
func BaseRate(currency string) float64 {
	return baseRates[currency]
}

// Generate builds quotes for every supported currency from the given mid
// rates. Currencies missing from mids fall back to the reference table.
func (g *Generator) Generate(mids map[string]float64) []FiatRate {
	quotes := make([]FiatRate, 0, len(baseRates))
	for _, code := range Currencies() {
		mid, ok := mids[code]
		if !ok || mid <= 0 {
			mid = baseRates[code]
		}
		quotes = append(quotes, g.quote(code, mid))
	}
	return quotes
}

// GenerateReference builds quotes from the reference table alone.
func (g *Generator) GenerateReference() []FiatRate {
	return g.Generate(nil)
}

func (g *Generator) quote(code string, mid float64) FiatRate {
	jittered := mid * (1 + (g.rng.Float64()*2-1)*rateVariation)
	return FiatRate{
		Currency:  code,
		Name:      currencyNames[code],
		Rate:      jittered,
		BuyRate:   jittered * (1 - bankSpread/2),
		SellRate:  jittered * (1 + bankSpread/2),
		Change24h: (g.rng.Float64()*2 - 1) * changeRange * 100,
		Source:    RateSources[g.rng.Intn(len(RateSources))],
	}
}
