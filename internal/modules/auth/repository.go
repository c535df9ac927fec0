package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/asteway/birrfolio/internal/database"
	"github.com/asteway/birrfolio/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const userColumns = "id, email, name, country, timezone, base_currency, created_at, updated_at"

// Repository handles user and session persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new auth repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "auth").Logger(),
	}
}

// CreateUser inserts the user row and its default settings row in one
// transaction. Returns domain.ErrDuplicate if the email is taken.
func (r *Repository) CreateUser(userID string, data CreateUserData, passwordHash string) error {
	var existing string
	err := r.db.QueryRow("SELECT id FROM users WHERE email = ?", data.Email).Scan(&existing)
	if err == nil {
		return fmt.Errorf("email %s: %w", data.Email, domain.ErrDuplicate)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO users (id, email, password_hash, name, country, timezone, base_currency)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, data.Email, passwordHash, data.Name, data.Country, data.Timezone, data.BaseCurrency,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		_, err = tx.Exec(
			`INSERT INTO user_settings (id, user_id, theme, language, hide_balances, price_alerts, news_updates)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), userID, "dark", "en", false, true, true,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user settings: %w", err)
		}

		return nil
	})
}

// GetUserByID returns a user without the password hash.
// Returns domain.ErrNotFound when no such user exists.
func (r *Repository) GetUserByID(userID string) (*User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns the user and its password hash for credential checks.
// Returns domain.ErrNotFound when no such user exists.
func (r *Repository) GetUserByEmail(email string) (*User, string, error) {
	var user User
	var passwordHash string
	err := r.db.QueryRow(
		"SELECT id, email, password_hash, name, country, timezone, base_currency, created_at, updated_at FROM users WHERE email = ?",
		email,
	).Scan(
		&user.ID, &user.Email, &passwordHash, &user.Name,
		&user.Country, &user.Timezone, &user.BaseCurrency,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("email %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, passwordHash, nil
}

// UpdateUser applies the non-nil fields and returns the updated user.
// Returns a ValidationError when nothing would change.
func (r *Repository) UpdateUser(userID string, data UpdateUserData) (*User, error) {
	setClauses := []string{}
	args := []interface{}{}

	if data.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *data.Name)
	}
	if data.Country != nil {
		setClauses = append(setClauses, "country = ?")
		args = append(args, *data.Country)
	}
	if data.Timezone != nil {
		setClauses = append(setClauses, "timezone = ?")
		args = append(args, *data.Timezone)
	}
	if data.BaseCurrency != nil {
		setClauses = append(setClauses, "base_currency = ?")
		args = append(args, *data.BaseCurrency)
	}

	if len(setClauses) == 0 {
		return nil, domain.NewValidationError("No valid fields to update")
	}

	args = append(args, userID)
	query := fmt.Sprintf(
		"UPDATE users SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		strings.Join(setClauses, ", "),
	)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	return r.GetUserByID(userID)
}

// GetSettings returns the user's settings row.
func (r *Repository) GetSettings(userID string) (*UserSettings, error) {
	var s UserSettings
	err := r.db.QueryRow(
		"SELECT id, user_id, theme, language, hide_balances, price_alerts, news_updates FROM user_settings WHERE user_id = ?",
		userID,
	).Scan(&s.ID, &s.UserID, &s.Theme, &s.Language, &s.HideBalances, &s.PriceAlerts, &s.NewsUpdates)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings for user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &s, nil
}

// CreateSession stores a session row for an issued token digest.
func (r *Repository) CreateSession(session Session) error {
	_, err := r.db.Exec(
		"INSERT INTO user_sessions (id, user_id, token_hash, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.TokenHash, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// HasLiveSession reports whether a non-expired session exists for the digest.
func (r *Repository) HasLiveSession(tokenHash string, now int64) (bool, error) {
	var id string
	err := r.db.QueryRow(
		"SELECT id FROM user_sessions WHERE token_hash = ? AND expires_at > ?",
		tokenHash, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}
	return true, nil
}

// DeleteSession removes the session matching the user and token digest.
func (r *Repository) DeleteSession(userID, tokenHash string) error {
	_, err := r.db.Exec(
		"DELETE FROM user_sessions WHERE user_id = ? AND token_hash = ?",
		userID, tokenHash,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpiredSessions(now int64) (int64, error) {
	result, err := r.db.Exec("DELETE FROM user_sessions WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name,
		&user.Country, &user.Timezone, &user.BaseCurrency,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
