package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs periodic catalog rebuilds on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	indexer *Indexer
	logger  zerolog.Logger
}

// NewScheduler validates the cron expression and prepares a scheduler.
// A rebuild that overlaps a manual run is skipped, not queued.
func NewScheduler(ix *Indexer, spec string, logger zerolog.Logger) (*Scheduler, error) {
	if ix == nil {
		return nil, fmt.Errorf("indexer is required")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		count, err := ix.Reindex(context.Background())
		if errors.Is(err, ErrReindexInProgress) {
			logger.Debug().Msg("Scheduled reindex skipped, another run is in flight")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("Scheduled reindex failed")
			return
		}
		logger.Info().Int("descriptors", count).Msg("Scheduled reindex completed")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reindex schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, indexer: ix, logger: logger}, nil
}

// Start begins firing scheduled rebuilds.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
