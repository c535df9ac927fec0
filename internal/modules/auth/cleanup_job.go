package auth

import (
	"time"

	"github.com/rs/zerolog"
)

// SessionCleanupJob removes expired session rows.
// Scheduled hourly; logout already deletes sessions eagerly, this catches the
// ones that simply aged out.
type SessionCleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewSessionCleanupJob creates a new session cleanup job.
func NewSessionCleanupJob(repo *Repository, log zerolog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		repo: repo,
		log:  log.With().Str("job", "session_cleanup").Logger(),
	}
}

// Run deletes all expired sessions.
func (j *SessionCleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpiredSessions(time.Now().Unix())
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired sessions")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired sessions")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}
