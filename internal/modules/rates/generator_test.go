package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReference(t *testing.T) {
	g := NewGenerator(1)

	quotes := g.GenerateReference()
	require.Len(t, quotes, len(baseRates))

	for _, q := range quotes {
		base := BaseRate(q.Currency)
		require.Greater(t, base, 0.0, "unknown currency %s", q.Currency)

		assert.NotEmpty(t, q.Name)
		assert.Contains(t, RateSources, q.Source)

		// Mid jitters at most 1% off the reference
		assert.InDelta(t, base, q.Rate, base*rateVariation*1.01)

		// Buy below mid, sell above, 2% apart
		assert.Less(t, q.BuyRate, q.Rate)
		assert.Greater(t, q.SellRate, q.Rate)
		assert.InDelta(t, q.Rate*bankSpread, q.SellRate-q.BuyRate, 0.0001)

		// 24h change stays within +/-2 percent
		assert.GreaterOrEqual(t, q.Change24h, -2.0)
		assert.LessOrEqual(t, q.Change24h, 2.0)
	}
}

func TestGenerateUsesLiveMids(t *testing.T) {
	g := NewGenerator(1)

	quotes := g.Generate(map[string]float64{"USD": 200})

	var usd, eur *FiatRate
	for i := range quotes {
		switch quotes[i].Currency {
		case "USD":
			usd = &quotes[i]
		case "EUR":
			eur = &quotes[i]
		}
	}
	require.NotNil(t, usd)
	require.NotNil(t, eur)

	// USD came from the live mid, EUR fell back to the reference table
	assert.InDelta(t, 200, usd.Rate, 200*rateVariation*1.01)
	assert.InDelta(t, BaseRate("EUR"), eur.Rate, BaseRate("EUR")*rateVariation*1.01)
}

func TestCurrenciesStableOrder(t *testing.T) {
	first := Currencies()
	second := Currencies()
	assert.Equal(t, first, second)
	assert.Len(t, first, 14)
	assert.Contains(t, first, "USD")
	assert.Contains(t, first, "KWD")
}
