// Package reliability covers backups and scheduled database maintenance.
package reliability

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/asteway/birrfolio/internal/database"
	"github.com/rs/zerolog"
)

// BackupService snapshots the exchange database to local files.
type BackupService struct {
	db  *database.DB
	log zerolog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(db *database.DB, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:  db,
		log: log.With().Str("service", "backup").Logger(),
	}
}

// Snapshot writes a consistent copy of the database to destPath.
// VACUUM INTO produces a compact single-file snapshot even mid-WAL.
func (s *BackupService) Snapshot(destPath string) error {
	// VACUUM INTO refuses to overwrite
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear snapshot target: %w", err)
	}

	if _, err := s.db.Conn().Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}

	s.log.Debug().Str("path", destPath).Int64("size_bytes", info.Size()).Msg("Database snapshot written")
	return nil
}

// Checksum returns the "sha256:<hex>" digest of a file.
func Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
