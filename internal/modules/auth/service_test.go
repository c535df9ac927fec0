package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/asteway/birrfolio/internal/domain"
	internaltesting "github.com/asteway/birrfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *Repository, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	service := NewService(repo, testJWTSecret, zerolog.Nop())
	return service, repo, cleanup
}

func registerTestUser(t *testing.T, service *Service, email string) *AuthResult {
	t.Helper()

	result, err := service.Register(CreateUserData{
		Email:    email,
		Password: "password123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return result
}

func TestRegister(t *testing.T) {
	service, repo, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "abebe@example.com", result.User.Email)
	assert.Equal(t, "Test User", result.User.Name)
	assert.NotEmpty(t, result.Token)

	// Defaults applied when the payload omits them
	assert.Equal(t, "Ethiopia", result.User.Country)
	assert.Equal(t, "Africa/Addis_Ababa", result.User.Timezone)
	assert.Equal(t, "ETB", result.User.BaseCurrency)

	// Default settings row created in the same transaction
	settings, err := repo.GetSettings(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, "en", settings.Language)
	assert.False(t, settings.HideBalances)
	assert.True(t, settings.PriceAlerts)
	assert.True(t, settings.NewsUpdates)

	// Registration opens a session for the issued token
	live, err := repo.HasLiveSession(HashToken(result.Token), time.Now().Unix())
	require.NoError(t, err)
	assert.True(t, live)
}

func TestRegisterValidation(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	tests := []struct {
		name    string
		data    CreateUserData
		message string
	}{
		{
			name:    "missing email",
			data:    CreateUserData{Password: "password123", Name: "Test"},
			message: "Email, password, and name are required",
		},
		{
			name:    "missing password",
			data:    CreateUserData{Email: "a@b.com", Name: "Test"},
			message: "Email, password, and name are required",
		},
		{
			name:    "missing name",
			data:    CreateUserData{Email: "a@b.com", Password: "password123"},
			message: "Email, password, and name are required",
		},
		{
			name:    "short password",
			data:    CreateUserData{Email: "a@b.com", Password: "12345", Name: "Test"},
			message: "Password must be at least 6 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(tt.data)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	registerTestUser(t, service, "abebe@example.com")

	_, err := service.Register(CreateUserData{
		Email:    "abebe@example.com",
		Password: "password123",
		Name:     "Other User",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "  Abebe@Example.COM ")
	assert.Equal(t, "abebe@example.com", result.User.Email)

	// Same address with different casing is still a duplicate
	_, err := service.Register(CreateUserData{
		Email:    "ABEBE@example.com",
		Password: "password123",
		Name:     "Other",
	})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestLogin(t *testing.T) {
	service, repo, cleanup := newTestService(t)
	defer cleanup()

	registered := registerTestUser(t, service, "abebe@example.com")

	result, err := service.Login(LoginCredentials{
		Email:    "abebe@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)

	live, err := repo.HasLiveSession(HashToken(result.Token), time.Now().Unix())
	require.NoError(t, err)
	assert.True(t, live)
}

func TestLoginInvalidCredentials(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	registerTestUser(t, service, "abebe@example.com")

	// Wrong password and unknown email return the same error
	_, err := service.Login(LoginCredentials{Email: "abebe@example.com", Password: "wrong-password"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, err = service.Login(LoginCredentials{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLoginValidation(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Login(LoginCredentials{Email: "abebe@example.com"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Email and password are required", err.Error())
}

func TestValidateToken(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	user, err := service.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
	assert.Equal(t, "abebe@example.com", user.Email)
}

func TestValidateTokenGarbage(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.ValidateToken("not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateTokenWrongSecret(t *testing.T) {
	service, repo, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	// A token signed with a different secret fails even though a session row
	// exists for this user
	other := NewService(repo, "different-secret", zerolog.Nop())
	_, err := other.ValidateToken(result.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateTokenRequiresSession(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	// A structurally valid JWT with no backing session row is rejected
	require.NoError(t, service.Logout(result.User.ID, result.Token))

	_, err := service.ValidateToken(result.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestLogoutIsIdempotent(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	require.NoError(t, service.Logout(result.User.ID, result.Token))
	require.NoError(t, service.Logout(result.User.ID, result.Token))
}

func TestLogoutOnlyRemovesOwnSession(t *testing.T) {
	service, repo, cleanup := newTestService(t)
	defer cleanup()

	first := registerTestUser(t, service, "abebe@example.com")
	second := registerTestUser(t, service, "kebede@example.com")

	require.NoError(t, service.Logout(first.User.ID, first.Token))

	live, err := repo.HasLiveSession(HashToken(second.Token), time.Now().Unix())
	require.NoError(t, err)
	assert.True(t, live)
}

func TestUpdateProfile(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	name := "Renamed User"
	currency := "USD"
	updated, err := service.UpdateProfile(result.User.ID, UpdateUserData{
		Name:         &name,
		BaseCurrency: &currency,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", updated.Name)
	assert.Equal(t, "USD", updated.BaseCurrency)
	// Untouched fields survive
	assert.Equal(t, "Ethiopia", updated.Country)
}

func TestUpdateProfileNoFields(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	_, err := service.UpdateProfile(result.User.ID, UpdateUserData{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestSessionCleanup(t *testing.T) {
	service, repo, cleanup := newTestService(t)
	defer cleanup()

	result := registerTestUser(t, service, "abebe@example.com")

	// An already-expired session alongside the live one
	expired := Session{
		ID:        "expired-session",
		UserID:    result.User.ID,
		TokenHash: HashToken("old-token"),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	require.NoError(t, repo.CreateSession(expired))

	job := NewSessionCleanupJob(repo, zerolog.Nop())
	require.NoError(t, job.Run())

	live, err := repo.HasLiveSession(HashToken("old-token"), time.Now().Unix())
	require.NoError(t, err)
	assert.False(t, live)

	live, err = repo.HasLiveSession(HashToken(result.Token), time.Now().Unix())
	require.NoError(t, err)
	assert.True(t, live)
}

func TestHashTokenDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
