package portfolio

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/asteway/birrfolio/internal/database"
	"github.com/asteway/birrfolio/internal/domain"
	"github.com/rs/zerolog"
)

const transactionColumns = "id, user_id, holding_id, symbol, transaction_type, amount, price, total, fees, exchange, notes, transaction_date, created_at"

// TransactionRepository persists ledger entries.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// CreateWithHoldingUpdate inserts the ledger row and writes the mutated
// holding in a single transaction. Either both land or neither does.
func (r *TransactionRepository) CreateWithHoldingUpdate(txn Transaction, h *Holding) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO transactions (id, user_id, holding_id, symbol, transaction_type, amount, price, total, fees, exchange, notes, transaction_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.UserID, txn.HoldingID, txn.Symbol, txn.TransactionType,
			txn.Amount, txn.Price, txn.Total, txn.Fees,
			txn.Exchange, txn.Notes, txn.TransactionDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		_, err = tx.Exec(
			`UPDATE portfolio_holdings
			 SET amount = ?, avg_buy_price = ?, total_value = ?, gain_loss = ?, gain_loss_percent = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			h.Amount, h.AvgBuyPrice, h.TotalValue, h.GainLoss, h.GainLossPercent, h.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}

		return nil
	})
}

// Create inserts a standalone ledger row without touching any holding.
func (r *TransactionRepository) Create(txn Transaction) error {
	_, err := r.db.Exec(
		`INSERT INTO transactions (id, user_id, holding_id, symbol, transaction_type, amount, price, total, fees, exchange, notes, transaction_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.HoldingID, txn.Symbol, txn.TransactionType,
		txn.Amount, txn.Price, txn.Total, txn.Fees,
		txn.Exchange, txn.Notes, txn.TransactionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByID returns one ledger entry.
func (r *TransactionRepository) GetByID(transactionID string) (*Transaction, error) {
	row := r.db.QueryRow("SELECT "+transactionColumns+" FROM transactions WHERE id = ?", transactionID)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetByUser returns a user's ledger, newest first, capped at limit.
func (r *TransactionRepository) GetByUser(userID string, limit int) ([]Transaction, error) {
	rows, err := r.db.Query(
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY transaction_date DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// Delete removes one ledger entry. The holding it touched keeps its state.
func (r *TransactionRepository) Delete(transactionID string) error {
	result, err := r.db.Exec("DELETE FROM transactions WHERE id = ?", transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	return nil
}

func scanTransaction(row scanner) (*Transaction, error) {
	var txn Transaction
	err := row.Scan(
		&txn.ID, &txn.UserID, &txn.HoldingID, &txn.Symbol, &txn.TransactionType,
		&txn.Amount, &txn.Price, &txn.Total, &txn.Fees,
		&txn.Exchange, &txn.Notes, &txn.TransactionDate, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
