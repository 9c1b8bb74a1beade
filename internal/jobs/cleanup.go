package jobs

import (
	"context"
	"sync"
	"time"

	"veo-console/internal/logging"

	"github.com/rs/zerolog"
)

// CleanupService ferme périodiquement les sessions inactives (page fermée
// sans déconnexion propre) et libère leurs pollers.
type CleanupService struct {
	jobService JobService
	interval   time.Duration
	maxIdle    time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	logger     zerolog.Logger
}

func NewCleanupService(jobService JobService, interval, maxIdle time.Duration, logger zerolog.Logger) *CleanupService {
	return &CleanupService{
		jobService: jobService,
		interval:   interval,
		maxIdle:    maxIdle,
		stopCh:     make(chan struct{}),
		logger:     logging.Component(logger, "cleanup"),
	}
}

func (c *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info().
		Dur("interval", c.interval).
		Dur("max_idle", c.maxIdle).
		Msg("Cleanup service started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Cleanup service stopped due to context cancellation")
			return
		case <-c.stopCh:
			c.logger.Info().Msg("Cleanup service stopped")
			return
		case <-ticker.C:
			if closed, err := c.jobService.CleanupIdleSessions(ctx, c.maxIdle); err != nil {
				c.logger.Error().Err(err).Msg("Cleanup error")
			} else if closed > 0 {
				c.logger.Info().Int("sessions", closed).Msg("Idle sessions closed")
			}
		}
	}
}

func (c *CleanupService) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
