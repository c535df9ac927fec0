package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asteway/birrfolio/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	// tokenTTL is the lifetime of both the JWT and its session row
	tokenTTL = 7 * 24 * time.Hour

	// bcryptCost for password hashing
	bcryptCost = 12

	minPasswordLength = 6
)

// ErrInvalidToken is returned when a presented token fails signature,
// expiry, or session validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Service implements registration, login, and token validation.
type Service struct {
	repo      *Repository
	jwtSecret []byte
	log       zerolog.Logger
}

// NewService creates a new auth service.
func NewService(repo *Repository, jwtSecret string, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		log:       log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a user with default settings, issues a token, and opens a
// session.
func (s *Service) Register(data CreateUserData) (*AuthResult, error) {
	data.Email = strings.TrimSpace(strings.ToLower(data.Email))
	if data.Email == "" || data.Password == "" || data.Name == "" {
		return nil, domain.NewValidationError("Email, password, and name are required")
	}
	if len(data.Password) < minPasswordLength {
		return nil, domain.NewValidationError("Password must be at least 6 characters long")
	}

	if data.Country == "" {
		data.Country = DefaultCountry
	}
	if data.Timezone == "" {
		data.Timezone = DefaultTimezone
	}
	if data.BaseCurrency == "" {
		data.BaseCurrency = DefaultBaseCurrency
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()
	if err := s.repo.CreateUser(userID, data, string(passwordHash)); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(userID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("User registered")

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials, issues a token, and opens a session.
// Failed lookups and bad passwords both return ErrInvalidCredentials so the
// response does not reveal which emails exist.
func (s *Service) Login(credentials LoginCredentials) (*AuthResult, error) {
	if credentials.Email == "" || credentials.Password == "" {
		return nil, domain.NewValidationError("Email and password are required")
	}

	email := strings.TrimSpace(strings.ToLower(credentials.Email))
	user, passwordHash, err := s.repo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(credentials.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("User logged in")

	return &AuthResult{User: user, Token: token}, nil
}

// Logout deletes the session for the presented token. Idempotent.
func (s *Service) Logout(userID, token string) error {
	return s.repo.DeleteSession(userID, HashToken(token))
}

// ValidateToken checks the JWT signature and expiry AND requires a live
// session row for the token digest. Either failing returns ErrInvalidToken.
func (s *Service) ValidateToken(token string) (*User, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	live, err := s.repo.HasLiveSession(HashToken(token), time.Now().Unix())
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// GetProfile returns the user's profile.
func (s *Service) GetProfile(userID string) (*User, error) {
	return s.repo.GetUserByID(userID)
}

// UpdateProfile applies the allowed profile fields.
func (s *Service) UpdateProfile(userID string, data UpdateUserData) (*User, error) {
	return s.repo.UpdateUser(userID, data)
}

// GetSettings returns the user's dashboard settings.
func (s *Service) GetSettings(userID string) (*UserSettings, error) {
	return s.repo.GetSettings(userID)
}

// issueToken signs a JWT and records its session row.
func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	session := Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: HashToken(signed),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}
	if err := s.repo.CreateSession(session); err != nil {
		return "", err
	}

	return signed, nil
}

// HashToken returns the hex SHA-256 digest of a token. Deterministic so the
// session row can be found by indexed lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
