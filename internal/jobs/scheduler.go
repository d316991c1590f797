package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fidelizapp/fideliza-backend/internal/common/config"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
)

// Each job run gets at most this long before its context is cancelled.
const jobTimeout = 5 * time.Minute

// Scheduler runs the maintenance jobs on their cron specs.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

// NewScheduler wires the runner's jobs onto the configured cron specs.
// An empty spec disables that job.
func NewScheduler(cfg *config.CronConfig, runner *Runner) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, runner: runner}

	if cfg.ExpireRewardsSpec != "" {
		if _, err := c.AddFunc(cfg.ExpireRewardsSpec, s.wrap("expire_rewards", func(ctx context.Context) error {
			_, err := runner.ExpireRewards(ctx)
			return err
		})); err != nil {
			return nil, err
		}
	}

	if cfg.SendRemindersSpec != "" {
		if _, err := c.AddFunc(cfg.SendRemindersSpec, s.wrap("send_reminders", func(ctx context.Context) error {
			runner.SendReminders(ctx, time.Now())
			return nil
		})); err != nil {
			return nil, err
		}
	}

	// Audit pruning piggybacks on the reward sweep schedule.
	if cfg.ExpireRewardsSpec != "" {
		if _, err := c.AddFunc(cfg.ExpireRewardsSpec, s.wrap("prune_logs", func(ctx context.Context) error {
			_, err := runner.PruneLogs(ctx)
			return err
		})); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			logger.Error("Tarefa agendada falhou",
				zap.String("job", name),
				zap.Error(err),
			)
			return
		}
		logger.Debug("Tarefa agendada concluída",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Start begins running the jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
