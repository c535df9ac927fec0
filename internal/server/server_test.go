package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asteway/birrfolio/internal/config"
	"github.com/asteway/birrfolio/internal/modules/analytics"
	analyticshandlers "github.com/asteway/birrfolio/internal/modules/analytics/handlers"
	"github.com/asteway/birrfolio/internal/modules/auth"
	authhandlers "github.com/asteway/birrfolio/internal/modules/auth/handlers"
	"github.com/asteway/birrfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/asteway/birrfolio/internal/modules/portfolio/handlers"
	"github.com/asteway/birrfolio/internal/modules/rates"
	rateshandlers "github.com/asteway/birrfolio/internal/modules/rates/handlers"
	internaltesting "github.com/asteway/birrfolio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	db, cleanup := internaltesting.NewTestDB(t, "exchange")
	conn := db.Conn()
	log := zerolog.Nop()

	authRepo := auth.NewRepository(conn, log)
	authService := auth.NewService(authRepo, "test-secret", log)

	holdings := portfolio.NewHoldingRepository(conn, log)
	transactions := portfolio.NewTransactionRepository(conn, log)
	portfolioService := portfolio.NewService(holdings, transactions, log)

	history := rates.NewHistoryRepository(conn, log)
	ratesService := rates.NewService(nil, nil, history, log)
	analyticsService := analytics.NewService(history, log)

	srv := New(Config{
		Log:              log,
		DB:               db,
		Config:           &config.Config{DataDir: t.TempDir()},
		Port:             0,
		DevMode:          true,
		AuthService:      authService,
		AuthHandler:      authhandlers.NewHandler(authService, log),
		PortfolioHandler: portfoliohandlers.NewHandler(portfolioService, log),
		RatesHandler:     rateshandlers.NewHandler(ratesService, log),
		AnalyticsHandler: analyticshandlers.NewHandler(analyticsService, log),
	})

	return srv, cleanup
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "birrfolio", body["service"])
}

func TestPingEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/ping")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pong", body["message"])
}

func TestRatesEndpointIsPublic(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/rates/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool             `json:"success"`
		Data    []rates.FiatRate `json:"data"`
		Sources []string         `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 14)
	assert.NotEmpty(t, body.Sources)
}

func TestAnalyticsEndpointIsPublic(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/analytics/")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPortfolioEndpointRequiresAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/portfolio/")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSystemStatus(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Greater(t, status.Goroutines, 0)
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(0))
}

func TestDatabaseStats(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/system/database/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats DatabaseStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	tables := map[string]int64{}
	for _, tc := range stats.Tables {
		tables[tc.Table] = tc.Rows
	}
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "portfolio_holdings")
	assert.Contains(t, tables, "transactions")
}

func TestRegisterThroughServer(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	payload := `{"email":"abebe@example.com","password":"password123","name":"Test User"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.Token)

	// The fresh token opens the portfolio
	req = httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Logout kills the session
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateStreamPushesQuotes(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/rates/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The initial frame arrives before the first tick
	var frame struct {
		Type  string           `json:"type"`
		Rates []rates.FiatRate `json:"rates"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	assert.Equal(t, "rates", frame.Type)
	assert.Len(t, frame.Rates, 14)
}

func TestServerShutdown(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		_ = srv.Start()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}
