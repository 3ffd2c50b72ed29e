package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/service"
	"stilnovo/pkg/logger"

	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"
)

// auditLockKey - одна сверка на весь кластер auditor
const auditLockKey = "lock:marketplace:ledger-audit"

// CronScheduler периодически запускает полную сверку продавцов
type CronScheduler struct {
	cron    *cron.Cron
	audit   service.AuditServiceInterface
	locker  *redislock.Client
	lockTTL time.Duration
}

// NewCronScheduler создает планировщик; locker может быть nil (один экземпляр auditor)
func NewCronScheduler(audit service.AuditServiceInterface, locker *redislock.Client, lockTTL time.Duration) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	return &CronScheduler{
		cron:    c,
		audit:   audit,
		locker:  locker,
		lockTTL: lockTTL,
	}
}

// Start регистрирует задачу по расписанию (формат с секундами) и выполняет первую сверку сразу
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting audit scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunAudit(ctx); err != nil {
			logger.Error().Err(err).Msg("Scheduled ledger audit failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid audit schedule %q: %w", schedule, err)
	}

	s.cron.Start()

	if err := s.RunAudit(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial ledger audit failed")
	}

	return nil
}

// RunAudit выполняет сверку под распределенной блокировкой
// Если блокировку держит другой экземпляр, проход пропускается без ошибки
func (s *CronScheduler) RunAudit(ctx context.Context) error {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, auditLockKey, s.lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Info().Msg("Ledger audit already running on another instance, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to obtain audit lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn().Err(err).Msg("Failed to release audit lock")
			}
		}()
	}

	_, err := s.audit.AuditAll(ctx)
	return err
}

// Stop дожидается завершения запущенных задач
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping audit scheduler")
	<-s.cron.Stop().Done()
	logger.Info().Msg("Audit scheduler stopped")
}

// GetEntries возвращает зарегистрированные задачи
func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger направляет логи robfig/cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
