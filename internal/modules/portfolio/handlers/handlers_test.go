package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	internaltesting "github.com/asteway/birrfolio/internal/testing"
	"github.com/asteway/birrfolio/internal/modules/auth"
	"github.com/asteway/birrfolio/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// newTestServer wires the portfolio routes behind the real auth middleware
// and returns a bearer token for a registered user.
func newTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	conn := db.Conn()
	log := zerolog.Nop()

	authRepo := auth.NewRepository(conn, log)
	authService := auth.NewService(authRepo, "test-secret", log)

	holdings := portfolio.NewHoldingRepository(conn, log)
	transactions := portfolio.NewTransactionRepository(conn, log)
	service := portfolio.NewService(holdings, transactions, log)

	handler := NewHandler(service, log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r, auth.Middleware(authService, log))
	})

	server := httptest.NewServer(r)

	result, err := authService.Register(auth.CreateUserData{
		Email:    "abebe@example.com",
		Password: "password123",
		Name:     "Test User",
	})
	require.NoError(t, err)

	return server, result.Token, func() {
		server.Close()
		cleanup()
	}
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestGetPortfolioRequiresToken(t *testing.T) {
	server, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodGet, "/api/portfolio", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Access token required", env.Error)
}

func TestGetPortfolioRejectsBadToken(t *testing.T) {
	server, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodGet, "/api/portfolio", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid or expired token", env.Error)
}

func TestCreateAndGetPortfolio(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodPost, "/api/portfolio/holdings", token, map[string]interface{}{
		"symbol":        "BTC",
		"name":          "Bitcoin",
		"asset_type":    "crypto",
		"amount":        2,
		"avg_buy_price": 50000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "Holding created successfully", env.Message)

	resp, env = doRequest(t, server, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Holdings []portfolio.Holding `json:"holdings"`
		Summary  *portfolio.Summary  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, "BTC", view.Holdings[0].Symbol)
	require.NotNil(t, view.Summary)
	assert.Equal(t, 100000.0, view.Summary.TotalValue)
}

func TestCreateHoldingValidationError(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodPost, "/api/portfolio/holdings", token, map[string]interface{}{
		"symbol":        "BTC",
		"name":          "Bitcoin",
		"asset_type":    "crypto",
		"amount":        0,
		"avg_buy_price": 100,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Amount must be greater than zero", env.Error)
}

func TestCreateHoldingDuplicateError(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	payload := map[string]interface{}{
		"symbol":        "BTC",
		"name":          "Bitcoin",
		"asset_type":    "crypto",
		"amount":        1,
		"avg_buy_price": 100,
	}

	resp, _ := doRequest(t, server, http.MethodPost, "/api/portfolio/holdings", token, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doRequest(t, server, http.MethodPost, "/api/portfolio/holdings", token, payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestUpdateHoldingNotFound(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodPut, "/api/portfolio/holdings/missing", token, map[string]interface{}{
		"amount": 5,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestTransactionFlow(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	_, env := doRequest(t, server, http.MethodPost, "/api/portfolio/holdings", token, map[string]interface{}{
		"symbol":        "BTC",
		"name":          "Bitcoin",
		"asset_type":    "crypto",
		"amount":        10,
		"avg_buy_price": 100,
	})
	var created portfolio.Holding
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, env := doRequest(t, server, http.MethodPost, "/api/portfolio/transactions", token, map[string]interface{}{
		"holding_id":       created.ID,
		"transaction_type": "buy",
		"amount":           5,
		"price":            200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var txn portfolio.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &txn))
	assert.Equal(t, 1000.0, txn.Total)

	resp, env = doRequest(t, server, http.MethodGet, "/api/portfolio/transactions?limit=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transactions []portfolio.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &transactions))
	require.Len(t, transactions, 1)

	// The buy folded into the holding's weighted average
	resp, env = doRequest(t, server, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Holdings []portfolio.Holding `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, 15.0, view.Holdings[0].Amount)
	assert.InDelta(t, 133.3333, view.Holdings[0].AvgBuyPrice, 0.001)
}

func TestTransactionBadLimit(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodGet, "/api/portfolio/transactions?limit=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestExport(t *testing.T) {
	server, token, cleanup := newTestServer(t)
	defer cleanup()

	resp, env := doRequest(t, server, http.MethodGet, "/api/portfolio/export", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var export portfolio.Export
	require.NoError(t, json.Unmarshal(env.Data, &export))
	assert.Empty(t, export.Portfolio)

	// Even an empty portfolio exports a zero-valued summary
	require.NotNil(t, export.Summary)
	assert.Equal(t, 0.0, export.Summary.TotalValue)
	assert.Equal(t, 0, export.Summary.HoldingsCount)
	assert.Nil(t, export.Summary.BestPerformer)
	assert.Nil(t, export.Summary.WorstPerformer)
}
