package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLExchangeRate - fiat rates move slowly, one hour is plenty
	TTLExchangeRate = time.Hour

	// TTLCryptoPrices - crypto prices are volatile, keep the window tight
	TTLCryptoPrices = time.Minute
)
