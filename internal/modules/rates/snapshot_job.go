package rates

import (
	"github.com/rs/zerolog"
)

// SnapshotJob periodically appends the current mids to rate history so
// analytics has a series to work with.
type SnapshotJob struct {
	service *Service
	log     zerolog.Logger
}

// NewSnapshotJob creates a new rate snapshot job.
func NewSnapshotJob(service *Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		log:     log.With().Str("job", "rate_snapshot").Logger(),
	}
}

// Run records one snapshot per currency pair.
func (j *SnapshotJob) Run() error {
	if err := j.service.RecordSnapshot(); err != nil {
		j.log.Error().Err(err).Msg("Failed to record rate snapshot")
		return err
	}
	j.log.Debug().Msg("Recorded rate snapshot")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SnapshotJob) Name() string {
	return "rate_snapshot"
}
