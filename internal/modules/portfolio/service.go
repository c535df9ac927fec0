package portfolio

import (
	"fmt"
	"time"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// exportTransactionLimit caps how many ledger rows an export carries.
const exportTransactionLimit = 1000

// defaultTransactionLimit is used when the client does not ask for a count.
const defaultTransactionLimit = 50

// Service implements holding CRUD, the transaction ledger, and aggregation.
type Service struct {
	holdings     *HoldingRepository
	transactions *TransactionRepository
	log          zerolog.Logger
}

// NewService creates a new portfolio service.
func NewService(holdings *HoldingRepository, transactions *TransactionRepository, log zerolog.Logger) *Service {
	return &Service{
		holdings:     holdings,
		transactions: transactions,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// CreateHolding opens a position. The current price starts at the average buy
// price so the position opens flat.
func (s *Service) CreateHolding(userID string, data CreateHoldingData) (*Holding, error) {
	if data.Symbol == "" || data.Name == "" {
		return nil, domain.NewValidationError("Symbol and name are required")
	}
	if !validAssetType(data.AssetType) {
		return nil, domain.NewValidationError("Asset type must be crypto, fiat, or stock")
	}
	if data.Amount <= 0 {
		return nil, domain.NewValidationError("Amount must be greater than zero")
	}
	if data.AvgBuyPrice <= 0 {
		return nil, domain.NewValidationError("Average buy price must be greater than zero")
	}

	h := Holding{
		ID:           uuid.New().String(),
		UserID:       userID,
		Symbol:       data.Symbol,
		Name:         data.Name,
		AssetType:    data.AssetType,
		Amount:       data.Amount,
		AvgBuyPrice:  data.AvgBuyPrice,
		CurrentPrice: data.AvgBuyPrice,
		Notes:        data.Notes,
	}
	deriveValuation(&h)

	if err := s.holdings.Create(h); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("symbol", h.Symbol).
		Str("asset_type", h.AssetType).
		Msg("Holding created")

	return s.holdings.GetByID(h.ID)
}

// GetHoldings returns the user's positions, most valuable first.
func (s *Service) GetHoldings(userID string) ([]Holding, error) {
	return s.holdings.GetByUser(userID)
}

// UpdateHolding applies the editable fields and re-derives the valuation with
// the holding's existing current price.
func (s *Service) UpdateHolding(userID, holdingID string, data UpdateHoldingData) (*Holding, error) {
	h, err := s.ownedHolding(userID, holdingID)
	if err != nil {
		return nil, err
	}

	if data.Amount == nil && data.AvgBuyPrice == nil && data.Notes == nil {
		return nil, domain.NewValidationError("No valid fields to update")
	}

	if data.Amount != nil {
		if *data.Amount < 0 {
			return nil, domain.NewValidationError("Amount cannot be negative")
		}
		h.Amount = *data.Amount
	}
	if data.AvgBuyPrice != nil {
		if *data.AvgBuyPrice < 0 {
			return nil, domain.NewValidationError("Average buy price cannot be negative")
		}
		h.AvgBuyPrice = *data.AvgBuyPrice
	}
	if data.Notes != nil {
		h.Notes = data.Notes
	}

	deriveValuation(h)

	if err := s.holdings.Update(h); err != nil {
		return nil, err
	}
	return s.holdings.GetByID(holdingID)
}

// DeleteHolding removes a position. Ledger rows referencing it survive with a
// nulled holding_id.
func (s *Service) DeleteHolding(userID, holdingID string) error {
	if _, err := s.ownedHolding(userID, holdingID); err != nil {
		return err
	}

	if err := s.holdings.Delete(holdingID); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Str("holding_id", holdingID).Msg("Holding deleted")
	return nil
}

// ListAllHoldings returns every holding across users for the price sync job.
func (s *Service) ListAllHoldings() ([]Holding, error) {
	return s.holdings.GetAll()
}

// UpdateHoldingPrice refreshes a holding's market price and derived columns.
// Called by the price sync job, so there is no ownership check.
func (s *Service) UpdateHoldingPrice(holdingID string, price float64) error {
	h, err := s.holdings.GetByID(holdingID)
	if err != nil {
		return err
	}

	h.CurrentPrice = price
	deriveValuation(h)

	return s.holdings.UpdatePrice(holdingID, price, h.TotalValue, h.GainLoss, h.GainLossPercent)
}

// RecordTransaction appends a ledger row. When the row references a holding,
// the holding mutates in the same atomic write: buys fold into the weighted
// average buy price; sells reduce the amount, floored at zero, and leave the
// average untouched. Without a holding reference the row is a standalone
// ledger entry and no position changes.
func (s *Service) RecordTransaction(userID string, data CreateTransactionData) (*Transaction, error) {
	if data.TransactionType != TransactionTypeBuy && data.TransactionType != TransactionTypeSell {
		return nil, domain.NewValidationError("Transaction type must be buy or sell")
	}
	if data.Amount <= 0 {
		return nil, domain.NewValidationError("Amount must be greater than zero")
	}
	if data.Price <= 0 {
		return nil, domain.NewValidationError("Price must be greater than zero")
	}
	if data.Fees < 0 {
		return nil, domain.NewValidationError("Fees cannot be negative")
	}
	if data.HoldingID == "" && data.Symbol == "" {
		return nil, domain.NewValidationError("Symbol is required")
	}

	transactionDate := data.TransactionDate
	if transactionDate == "" {
		transactionDate = time.Now().UTC().Format(time.RFC3339)
	}

	txn := Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Symbol:          data.Symbol,
		TransactionType: data.TransactionType,
		Amount:          data.Amount,
		Price:           data.Price,
		Total:           data.Amount * data.Price,
		Fees:            data.Fees,
		Exchange:        data.Exchange,
		Notes:           data.Notes,
		TransactionDate: transactionDate,
	}

	if data.HoldingID == "" {
		if err := s.transactions.Create(txn); err != nil {
			return nil, fmt.Errorf("failed to record transaction: %w", err)
		}
	} else {
		h, err := s.ownedHolding(userID, data.HoldingID)
		if err != nil {
			return nil, err
		}

		switch data.TransactionType {
		case TransactionTypeBuy:
			newAmount := h.Amount + data.Amount
			if newAmount > 0 {
				h.AvgBuyPrice = (h.Amount*h.AvgBuyPrice + data.Amount*data.Price) / newAmount
			}
			h.Amount = newAmount
		case TransactionTypeSell:
			h.Amount -= data.Amount
			if h.Amount < 0 {
				h.Amount = 0
			}
		}
		deriveValuation(h)

		holdingID := data.HoldingID
		txn.HoldingID = &holdingID
		txn.Symbol = h.Symbol

		if err := s.transactions.CreateWithHoldingUpdate(txn, h); err != nil {
			return nil, fmt.Errorf("failed to record transaction: %w", err)
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Str("symbol", txn.Symbol).
		Str("type", data.TransactionType).
		Float64("amount", data.Amount).
		Msg("Transaction recorded")

	return s.transactions.GetByID(txn.ID)
}

// GetTransactions returns the user's ledger, newest first.
func (s *Service) GetTransactions(userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	return s.transactions.GetByUser(userID, limit)
}

// DeleteTransaction removes a ledger entry without touching the holding it
// recorded.
func (s *Service) DeleteTransaction(userID, transactionID string) error {
	txn, err := s.transactions.GetByID(transactionID)
	if err != nil {
		return err
	}
	if txn.UserID != userID {
		return domain.ErrNotOwner
	}
	return s.transactions.Delete(transactionID)
}

// GetSummary aggregates the user's holdings.
func (s *Service) GetSummary(userID string) (*Summary, error) {
	holdings, err := s.holdings.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	return Summarize(holdings), nil
}

// GetExport bundles the portfolio, recent ledger, and summary.
func (s *Service) GetExport(userID string) (*Export, error) {
	holdings, err := s.holdings.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactions.GetByUser(userID, exportTransactionLimit)
	if err != nil {
		return nil, err
	}

	return &Export{
		Portfolio:    holdings,
		Transactions: transactions,
		Summary:      Summarize(holdings),
	}, nil
}

// Summarize aggregates holdings into portfolio totals. Gain percent is taken
// over the invested amount (value minus gain). Best and worst performers are
// by gain percent; ties keep the earlier holding. An empty portfolio yields a
// zero-valued summary with nil performers.
func Summarize(holdings []Holding) *Summary {
	summary := Summary{HoldingsCount: len(holdings)}
	if len(holdings) == 0 {
		return &summary
	}
	best := holdings[0]
	worst := holdings[0]

	for _, h := range holdings {
		summary.TotalValue += h.TotalValue
		summary.TotalGainLoss += h.GainLoss

		if h.GainLossPercent > best.GainLossPercent {
			best = h
		}
		if h.GainLossPercent < worst.GainLossPercent {
			worst = h
		}
	}

	invested := summary.TotalValue - summary.TotalGainLoss
	if invested > 0 {
		summary.TotalGainLossPercent = summary.TotalGainLoss / invested * 100
	}

	bestSymbol := best.Symbol
	worstSymbol := worst.Symbol
	summary.BestPerformer = &bestSymbol
	summary.WorstPerformer = &worstSymbol

	return &summary
}

// ownedHolding fetches a holding and verifies the caller owns it.
func (s *Service) ownedHolding(userID, holdingID string) (*Holding, error) {
	h, err := s.holdings.GetByID(holdingID)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return h, nil
}

// deriveValuation recomputes total_value, gain_loss, and gain_loss_percent
// from amount, avg_buy_price, and current_price.
func deriveValuation(h *Holding) {
	h.TotalValue = h.Amount * h.CurrentPrice
	cost := h.Amount * h.AvgBuyPrice
	h.GainLoss = h.TotalValue - cost
	if cost > 0 {
		h.GainLossPercent = h.GainLoss / cost * 100
	} else {
		h.GainLossPercent = 0
	}
}

func validAssetType(t string) bool {
	return t == AssetTypeCrypto || t == AssetTypeFiat || t == AssetTypeStock
}
