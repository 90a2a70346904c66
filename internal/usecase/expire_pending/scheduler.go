package expire_pending

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout ограничивает один запуск очистки
const runTimeout = 30 * time.Second

// Runner то, что запускается по расписанию
type Runner interface {
	Execute(ctx context.Context) (*Response, error)
}

// Scheduler запускает очистку по cron расписанию.
// Следующий запуск пропускается, пока предыдущий не завершился.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger Logger
}

// NewScheduler создает планировщик. schedule в формате robfig/cron, например "@every 1m".
func NewScheduler(runner Runner, schedule string, logger Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("expire_pending: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start запускает планировщик в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("ExpirePending: scheduler started")
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("ExpirePending: scheduler stop timed out")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.runner.Execute(ctx); err != nil {
		s.logger.Error("ExpirePending: run failed: %v", err)
	}
}
