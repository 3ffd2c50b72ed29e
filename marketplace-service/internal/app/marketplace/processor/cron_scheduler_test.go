package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"stilnovo/marketplace-service/internal/app/marketplace/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuditService мок для AuditServiceInterface
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) AuditSeller(ctx context.Context, sellerID uuid.UUID) (*entity.AuditReport, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuditReport), args.Error(1)
}

func (m *MockAuditService) AuditAll(ctx context.Context) ([]entity.AuditReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AuditReport), args.Error(1)
}

func (m *MockAuditService) HandleEvent(ctx context.Context, event entity.MarketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestLocker(t *testing.T) *redislock.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return redislock.New(client)
}

// ===================== NewCronScheduler Tests =====================

func TestNewCronScheduler(t *testing.T) {
	// Arrange
	auditSvc := new(MockAuditService)

	// Act
	scheduler := NewCronScheduler(auditSvc, nil, time.Minute)

	// Assert
	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, auditSvc, scheduler.audit)
	assert.Nil(t, scheduler.locker)
	assert.Equal(t, time.Minute, scheduler.lockTTL)
}

// ===================== Start Tests =====================

func TestCronScheduler_Start_Success(t *testing.T) {
	// Arrange
	auditSvc := new(MockAuditService)
	scheduler := NewCronScheduler(auditSvc, nil, time.Minute)
	auditSvc.On("AuditAll", mock.Anything).Return([]entity.AuditReport{}, nil)

	// Act
	err := scheduler.Start(context.Background(), "0 */15 * * * *")
	defer scheduler.Stop()

	// Assert
	require.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)
	auditSvc.AssertCalled(t, "AuditAll", mock.Anything)
}

func TestCronScheduler_Start_InitialAuditFailureIsNotFatal(t *testing.T) {
	auditSvc := new(MockAuditService)
	scheduler := NewCronScheduler(auditSvc, nil, time.Minute)
	auditSvc.On("AuditAll", mock.Anything).Return(nil, errors.New("database is down"))

	err := scheduler.Start(context.Background(), "0 */15 * * * *")
	defer scheduler.Stop()

	assert.NoError(t, err)
	auditSvc.AssertNumberOfCalls(t, "AuditAll", 1)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	auditSvc := new(MockAuditService)
	scheduler := NewCronScheduler(auditSvc, nil, time.Minute)

	err := scheduler.Start(context.Background(), "every now and then")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid audit schedule")
	assert.Empty(t, scheduler.GetEntries())
	auditSvc.AssertNotCalled(t, "AuditAll", mock.Anything)
}

// ===================== RunAudit Tests =====================

func TestCronScheduler_RunAudit_WithLock(t *testing.T) {
	auditSvc := new(MockAuditService)
	locker := newTestLocker(t)
	scheduler := NewCronScheduler(auditSvc, locker, time.Minute)
	auditSvc.On("AuditAll", mock.Anything).Return([]entity.AuditReport{}, nil)

	err := scheduler.RunAudit(context.Background())

	require.NoError(t, err)
	auditSvc.AssertNumberOfCalls(t, "AuditAll", 1)

	// блокировка освобождена после прохода
	lock, err := locker.Obtain(context.Background(), auditLockKey, time.Minute, nil)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
}

func TestCronScheduler_RunAudit_LockHeldElsewhere(t *testing.T) {
	auditSvc := new(MockAuditService)
	locker := newTestLocker(t)
	scheduler := NewCronScheduler(auditSvc, locker, time.Minute)

	held, err := locker.Obtain(context.Background(), auditLockKey, time.Minute, nil)
	require.NoError(t, err)
	defer held.Release(context.Background())

	err = scheduler.RunAudit(context.Background())

	assert.NoError(t, err)
	auditSvc.AssertNotCalled(t, "AuditAll", mock.Anything)
}

func TestCronScheduler_RunAudit_PropagatesError(t *testing.T) {
	auditSvc := new(MockAuditService)
	scheduler := NewCronScheduler(auditSvc, newTestLocker(t), time.Minute)
	auditSvc.On("AuditAll", mock.Anything).Return(nil, errors.New("failed to list accounts: timeout"))

	err := scheduler.RunAudit(context.Background())

	assert.EqualError(t, err, "failed to list accounts: timeout")
}

// ===================== Stop Tests =====================

func TestCronScheduler_Stop(t *testing.T) {
	auditSvc := new(MockAuditService)
	scheduler := NewCronScheduler(auditSvc, nil, time.Minute)
	auditSvc.On("AuditAll", mock.Anything).Return([]entity.AuditReport{}, nil)

	require.NoError(t, scheduler.Start(context.Background(), "@every 1h"))

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
