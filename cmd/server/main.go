// Package main is the entry point for the birrfolio exchange tracker. It
// serves ETB exchange rates and crypto prices, tracks user portfolios with a
// transaction ledger, and runs the background jobs that keep rates, prices,
// and backups fresh.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/asteway/birrfolio/internal/clientdata"
	"github.com/asteway/birrfolio/internal/clients/coingecko"
	"github.com/asteway/birrfolio/internal/clients/exchangerate"
	"github.com/asteway/birrfolio/internal/config"
	"github.com/asteway/birrfolio/internal/database"
	"github.com/asteway/birrfolio/internal/modules/analytics"
	analyticshandlers "github.com/asteway/birrfolio/internal/modules/analytics/handlers"
	"github.com/asteway/birrfolio/internal/modules/auth"
	authhandlers "github.com/asteway/birrfolio/internal/modules/auth/handlers"
	"github.com/asteway/birrfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/asteway/birrfolio/internal/modules/portfolio/handlers"
	"github.com/asteway/birrfolio/internal/modules/rates"
	rateshandlers "github.com/asteway/birrfolio/internal/modules/rates/handlers"
	"github.com/asteway/birrfolio/internal/reliability"
	"github.com/asteway/birrfolio/internal/scheduler"
	"github.com/asteway/birrfolio/internal/server"
	"github.com/asteway/birrfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting birrfolio")

	// Single-database layout: accounts, portfolio, ledger, rate history, and
	// client data caches all live in exchange.db.
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "exchange.db"),
		Profile: database.ProfileLedger,
		Name:    "exchange",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	conn := db.Conn()

	// External data clients share the client data cache
	cacheRepo := clientdata.NewRepository(conn)
	exchangeRateClient := exchangerate.NewClient(cacheRepo, log)
	coinGeckoClient := coingecko.NewClient(cacheRepo, log)

	// Repositories and services
	authRepo := auth.NewRepository(conn, log)
	authService := auth.NewService(authRepo, cfg.JWTSecret, log)

	holdingRepo := portfolio.NewHoldingRepository(conn, log)
	transactionRepo := portfolio.NewTransactionRepository(conn, log)
	portfolioService := portfolio.NewService(holdingRepo, transactionRepo, log)

	historyRepo := rates.NewHistoryRepository(conn, log)
	ratesService := rates.NewService(exchangeRateClient, coinGeckoClient, historyRepo, log)
	analyticsService := analytics.NewService(historyRepo, log)

	// Background jobs
	sched := scheduler.New(log)
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{"0 0 * * * *", auth.NewSessionCleanupJob(authRepo, log)},            // hourly
		{"0 30 * * * *", rates.NewSnapshotJob(ratesService, log)},           // hourly at :30
		{"0 */15 * * * *", rates.NewPriceSyncJob(ratesService, portfolioService, log)}, // every 15 min
		{"0 0 3 * * *", clientdata.NewCleanupJob(cacheRepo, log)},           // 3 AM daily
		{"0 0 2 * * *", reliability.NewMaintenanceJob(db, historyRepo, cfg.DataDir, log)}, // 2 AM daily
	}

	if cfg.Backup.Enabled() {
		r2Client, err := reliability.NewR2Client(
			context.Background(),
			cfg.Backup.AccountID,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 client")
		}

		backupService := reliability.NewBackupService(db, log)
		r2BackupService := reliability.NewR2BackupService(r2Client, backupService, cfg.DataDir, log)
		jobs = append(jobs, struct {
			schedule string
			job      scheduler.Job
		}{"0 0 4 * * *", reliability.NewBackupJob(r2BackupService, cfg.Backup.RetentionDays, log)}) // 4 AM daily

		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
	} else {
		log.Info().Msg("Cloud backups disabled (no R2 credentials)")
	}

	for _, entry := range jobs {
		if err := sched.AddJob(entry.schedule, entry.job); err != nil {
			log.Fatal().Err(err).Str("job", entry.job.Name()).Msg("Failed to schedule job")
		}
	}
	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:              log,
		DB:               db,
		Config:           cfg,
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		AuthService:      authService,
		AuthHandler:      authhandlers.NewHandler(authService, log),
		PortfolioHandler: portfoliohandlers.NewHandler(portfolioService, log),
		RatesHandler:     rateshandlers.NewHandler(ratesService, log),
		AnalyticsHandler: analyticshandlers.NewHandler(analyticsService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
