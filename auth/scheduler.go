package auth

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler periodically calls Ensure on an AuthManager so the pool stays
// warm without every caller paying for a top-up on the request path.
type Scheduler struct {
	cron    *cron.Cron
	manager *AuthManager
}

// NewScheduler builds a stopped scheduler bound to manager.
func NewScheduler(manager *AuthManager) *Scheduler {
	return &Scheduler{cron: cron.New(), manager: manager}
}

// Start registers a periodic Ensure(ctx, minPoolSize) job on spec (standard
// five-field cron syntax) and starts the underlying cron scheduler.
func (s *Scheduler) Start(ctx context.Context, spec string, minPoolSize int) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.manager.Ensure(ctx, minPoolSize); err != nil {
			s.manager.logger.Warn().Err(err).Msg("scheduled bat pool top-up failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-progress job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
