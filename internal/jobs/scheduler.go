package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper removes expired session namespaces. The in-memory token store
// implements it; the Redis store expires via TTL and needs no sweeping.
type Sweeper interface {
	Sweep(now time.Time) int
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     zerolog.Logger
}

func NewScheduler(sweeper Sweeper, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 */10 * * * *", s.sweepSessions); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any running sweep to finish, up to the deadline of ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepSessions() {
	removed := s.sweeper.Sweep(time.Now())
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("expired sessions swept")
	}
}
