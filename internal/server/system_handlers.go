package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/asteway/birrfolio/internal/database"
	"github.com/asteway/birrfolio/internal/version"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves the monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	db        *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates new system handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, db *database.DB, startedAt time.Time) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		db:        db,
		startedAt: startedAt,
	}
}

// SystemStatusResponse is the /api/system/status payload.
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	DiskFreeGB    float64 `json:"disk_free_gb"`
}

// TableCount is one table's row count.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// DatabaseStatsResponse is the /api/system/database/stats payload.
type DatabaseStatsResponse struct {
	SizeMB          float64      `json:"size_mb"`
	OpenConnections int          `json:"open_connections"`
	InUse           int          `json:"in_use"`
	Idle            int          `json:"idle"`
	Tables          []TableCount `json:"tables"`
}

// HandleSystemStatus returns process and host statistics.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := SystemStatusResponse{
		Status:        "ok",
		Version:       version.Version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	// Short sample window so the endpoint answers fast
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = memStat.UsedPercent
		status.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		status.DiskFreeGB = float64(usage.Free) / 1e9
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	h.writeJSON(w, status)
}

// HandleDatabaseStats returns database file size, pool stats, and row counts.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := h.db.Conn().Stats()
	response := DatabaseStatsResponse{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		Tables:          []TableCount{},
	}

	if info, err := os.Stat(filepath.Join(h.dataDir, "exchange.db")); err == nil {
		response.SizeMB = float64(info.Size()) / 1024 / 1024
	}

	for _, table := range []string{"users", "portfolio_holdings", "transactions", "rate_history", "user_sessions"} {
		var count int64
		if err := h.db.Conn().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			h.log.Warn().Err(err).Str("table", table).Msg("Failed to count table rows")
			continue
		}
		response.Tables = append(response.Tables, TableCount{Table: table, Rows: count})
	}

	h.writeJSON(w, response)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
