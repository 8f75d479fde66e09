package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slotwise/service-scheduling/internal/domain/escalation"
	"go.uber.org/zap"
)

// EscalationSweeper periodically surfaces unresolved payment escalations so
// they do not rot in the table unnoticed. It never resolves anything itself;
// resolution stays a human decision.
type EscalationSweeper struct {
	repo   escalation.Repository
	logger *zap.Logger
	cron   *cron.Cron
}

// NewEscalationSweeper creates a new EscalationSweeper.
func NewEscalationSweeper(repo escalation.Repository, logger *zap.Logger) *EscalationSweeper {
	return &EscalationSweeper{
		repo:   repo,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start schedules the hourly sweep and runs one immediately.
func (s *EscalationSweeper) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweep()
	return nil
}

// Stop stops the cron scheduler and waits for a running sweep to finish.
func (s *EscalationSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *EscalationSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	escs, err := s.repo.ListUnresolved(ctx)
	if err != nil {
		s.logger.Error("escalation sweep failed", zap.Error(err))
		return
	}
	if len(escs) == 0 {
		s.logger.Debug("escalation sweep: queue empty")
		return
	}

	oldest := escs[0].CreatedAt()
	for _, e := range escs {
		if e.CreatedAt().Before(oldest) {
			oldest = e.CreatedAt()
		}
	}
	s.logger.Warn("unresolved payment escalations pending",
		zap.Int("count", len(escs)),
		zap.Time("oldest", oldest),
		zap.Duration("oldest_age", time.Since(oldest)),
	)
}
