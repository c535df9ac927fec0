// Package portfolio implements holdings, the transaction ledger, and
// portfolio aggregation.
package portfolio

// Asset types a holding can have.
const (
	AssetTypeCrypto = "crypto"
	AssetTypeFiat   = "fiat"
	AssetTypeStock  = "stock"
)

// Transaction types.
const (
	TransactionTypeBuy  = "buy"
	TransactionTypeSell = "sell"
)

// Holding is one position: a (user, symbol, asset_type) row with derived
// valuation columns kept in sync on every write.
type Holding struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	AssetType       string  `json:"asset_type"`
	Amount          float64 `json:"amount"`
	AvgBuyPrice     float64 `json:"avg_buy_price"`
	CurrentPrice    float64 `json:"current_price"`
	TotalValue      float64 `json:"total_value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	Notes           *string `json:"notes"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Transaction is one ledger entry. HoldingID goes nil when the holding is
// deleted; the history row survives.
type Transaction struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	HoldingID       *string `json:"holding_id"`
	Symbol          string  `json:"symbol"`
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Price           float64 `json:"price"`
	Total           float64 `json:"total"`
	Fees            float64 `json:"fees"`
	Exchange        *string `json:"exchange"`
	Notes           *string `json:"notes"`
	TransactionDate string  `json:"transaction_date"`
	CreatedAt       string  `json:"created_at"`
}

// CreateHoldingData is the payload for opening a position.
type CreateHoldingData struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	AssetType   string  `json:"asset_type"`
	Amount      float64 `json:"amount"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
	Notes       *string `json:"notes"`
}

// UpdateHoldingData carries the fields a user may change directly.
// Nil pointers leave the field untouched.
type UpdateHoldingData struct {
	Amount      *float64 `json:"amount"`
	AvgBuyPrice *float64 `json:"avg_buy_price"`
	Notes       *string  `json:"notes"`
}

// CreateTransactionData is the payload for recording a buy or sell.
// HoldingID is optional: without it the row is a standalone ledger entry and
// Symbol names the asset; with it the referenced holding mutates and supplies
// the symbol.
type CreateTransactionData struct {
	HoldingID       string  `json:"holding_id"`
	Symbol          string  `json:"symbol"`
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Price           float64 `json:"price"`
	Fees            float64 `json:"fees"`
	Exchange        *string `json:"exchange"`
	Notes           *string `json:"notes"`
	TransactionDate string  `json:"transaction_date"`
}

// Summary aggregates a user's holdings. BestPerformer and WorstPerformer are
// symbols; both stay nil when the portfolio is empty.
type Summary struct {
	TotalValue           float64 `json:"total_value"`
	TotalGainLoss        float64 `json:"total_gain_loss"`
	TotalGainLossPercent float64 `json:"total_gain_loss_percent"`
	HoldingsCount        int     `json:"holdings_count"`
	BestPerformer        *string `json:"best_performer"`
	WorstPerformer       *string `json:"worst_performer"`
}

// Export bundles everything a user can take with them.
type Export struct {
	Portfolio    []Holding     `json:"portfolio"`
	Transactions []Transaction `json:"transactions"`
	Summary      *Summary      `json:"summary"`
}
