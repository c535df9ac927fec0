// Package auth implements user accounts, sessions, and the request
// authentication gate.
package auth

// User represents a registered account. The password hash never leaves the
// repository layer.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	Timezone     string `json:"timezone"`
	BaseCurrency string `json:"base_currency"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// UserSettings holds per-user dashboard preferences, created with defaults on
// registration.
type UserSettings struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Theme        string `json:"theme"`
	Language     string `json:"language"`
	HideBalances bool   `json:"hide_balances"`
	PriceAlerts  bool   `json:"price_alerts"`
	NewsUpdates  bool   `json:"news_updates"`
}

// Session is a server-side record of an issued token. Only the SHA-256
// digest of the token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt int64 // unix seconds
}

// CreateUserData is the registration payload.
type CreateUserData struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	Timezone     string `json:"timezone"`
	BaseCurrency string `json:"base_currency"`
}

// LoginCredentials is the login payload.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserData carries the profile fields a user may change.
// Nil pointers leave the field untouched.
type UpdateUserData struct {
	Name         *string `json:"name"`
	Country      *string `json:"country"`
	Timezone     *string `json:"timezone"`
	BaseCurrency *string `json:"base_currency"`
}

// AuthResult is returned from register and login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Defaults applied on registration when the client omits them.
const (
	DefaultCountry      = "Ethiopia"
	DefaultTimezone     = "Africa/Addis_Ababa"
	DefaultBaseCurrency = "ETB"
)
