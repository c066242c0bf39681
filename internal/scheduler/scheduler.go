// Package scheduler запускает периодические задачи обслуживания по cron-расписанию.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger удаляет прошедшие слоты.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// jobTimeout ограничивает один прогон задачи.
const jobTimeout = time.Minute

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Sugar()}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		log:  log,
	}
}

// AddPurge регистрирует очистку прошедших слотов.
func (s *Scheduler) AddPurge(spec string, p Purger) error {
	if _, err := s.cron.AddFunc(spec, s.purgeJob(p)); err != nil {
		return fmt.Errorf("schedule purge %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) purgeJob(p Purger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := p.PurgeExpired(ctx)
		if err != nil {
			s.log.Error("purge expired slots failed", zap.Error(err), zap.Int64("deleted", n))
			return
		}
		if n > 0 {
			s.log.Info("expired slots purged", zap.Int64("deleted", n))
		}
	}
}

// Run запускает планировщик и ждёт отмены ctx, затем дожидается текущих задач.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(jobTimeout):
		s.log.Warn("scheduler jobs did not finish in time")
	}
	return nil
}

// cronLogger направляет внутренние сообщения cron в zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
