package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/asteway/birrfolio/internal/database"
	"github.com/asteway/birrfolio/internal/modules/rates"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	// rateHistoryRetention is how long rate snapshots are kept
	rateHistoryRetention = 180 * 24 * time.Hour

	// criticalDiskGB halts maintenance when free space drops below it
	criticalDiskGB = 0.5

	lowDiskGB = 5.0

	maintenanceTimeout = 5 * time.Minute
)

// MaintenanceJob performs nightly database upkeep: integrity check, WAL
// checkpoint, rate history trim, and a disk space check.
type MaintenanceJob struct {
	db      *database.DB
	history *rates.HistoryRepository
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job.
func NewMaintenanceJob(db *database.DB, history *rates.HistoryRepository, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		history: history,
		dataDir: dataDir,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Run executes the maintenance pass.
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("Database integrity check failed")
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// Not fatal, the next checkpoint will catch up
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	deleted, err := j.history.DeleteOlderThan(time.Now().Add(-rateHistoryRetention))
	if err != nil {
		j.log.Warn().Err(err).Msg("Rate history trim failed")
	} else if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Trimmed rate history")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Maintenance completed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	freeGB := float64(usage.Free) / 1e9
	j.log.Debug().Float64("free_gb", freeGB).Msg("Disk space check")

	if freeGB < criticalDiskGB {
		return fmt.Errorf("only %.2f GB free on data volume", freeGB)
	}
	if freeGB < lowDiskGB {
		j.log.Warn().Float64("free_gb", freeGB).Msg("Disk space running low")
	}
	return nil
}
