package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/rs/zerolog"
)

const holdingColumns = "id, user_id, symbol, name, asset_type, amount, avg_buy_price, current_price, total_value, gain_loss, gain_loss_percent, notes, created_at, updated_at"

// HoldingRepository persists portfolio holdings.
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository.
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// Create inserts a holding. Returns domain.ErrDuplicate when the user already
// holds this (symbol, asset_type).
func (r *HoldingRepository) Create(h Holding) error {
	_, err := r.db.Exec(
		`INSERT INTO portfolio_holdings (id, user_id, symbol, name, asset_type, amount, avg_buy_price, current_price, total_value, gain_loss, gain_loss_percent, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Symbol, h.Name, h.AssetType,
		h.Amount, h.AvgBuyPrice, h.CurrentPrice,
		h.TotalValue, h.GainLoss, h.GainLossPercent, h.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("holding %s/%s: %w", h.Symbol, h.AssetType, domain.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// GetByID returns a holding regardless of owner. Ownership is checked at the
// service layer so it can distinguish not-found from not-yours.
func (r *HoldingRepository) GetByID(holdingID string) (*Holding, error) {
	row := r.db.QueryRow("SELECT "+holdingColumns+" FROM portfolio_holdings WHERE id = ?", holdingID)
	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("holding %s: %w", holdingID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// GetByUser returns all of a user's holdings, most valuable first.
func (r *HoldingRepository) GetByUser(userID string) ([]Holding, error) {
	rows, err := r.db.Query(
		"SELECT "+holdingColumns+" FROM portfolio_holdings WHERE user_id = ? ORDER BY total_value DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// GetAll returns every holding across users. Used by the price sync job.
func (r *HoldingRepository) GetAll() ([]Holding, error) {
	rows, err := r.db.Query("SELECT " + holdingColumns + " FROM portfolio_holdings")
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}
	return holdings, nil
}

// Update applies the editable fields plus the re-derived valuation columns.
func (r *HoldingRepository) Update(h *Holding) error {
	result, err := r.db.Exec(
		`UPDATE portfolio_holdings
		 SET amount = ?, avg_buy_price = ?, current_price = ?, total_value = ?, gain_loss = ?, gain_loss_percent = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		h.Amount, h.AvgBuyPrice, h.CurrentPrice,
		h.TotalValue, h.GainLoss, h.GainLossPercent, h.Notes, h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s: %w", h.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdatePrice refreshes current_price and the derived valuation columns.
func (r *HoldingRepository) UpdatePrice(holdingID string, price, totalValue, gainLoss, gainLossPercent float64) error {
	_, err := r.db.Exec(
		`UPDATE portfolio_holdings
		 SET current_price = ?, total_value = ?, gain_loss = ?, gain_loss_percent = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		price, totalValue, gainLoss, gainLossPercent, holdingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding price: %w", err)
	}
	return nil
}

// Delete removes a holding. The ledger keeps its rows; the foreign key nulls
// their holding_id.
func (r *HoldingRepository) Delete(holdingID string) error {
	result, err := r.db.Exec("DELETE FROM portfolio_holdings WHERE id = ?", holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s: %w", holdingID, domain.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row scanner) (*Holding, error) {
	var h Holding
	err := row.Scan(
		&h.ID, &h.UserID, &h.Symbol, &h.Name, &h.AssetType,
		&h.Amount, &h.AvgBuyPrice, &h.CurrentPrice,
		&h.TotalValue, &h.GainLoss, &h.GainLossPercent,
		&h.Notes, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
