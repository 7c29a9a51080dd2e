package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/domain/repository"
)

func TestSweeper_SweepOnceDeletesExpiredRows(t *testing.T) {
	s := newScenario(t)
	sweeper := NewSweeper(s.f.Provider, 0, 0, s.metrics).WithClock(func() time.Time { return now })

	deleted, err := sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.SweepDeleted))

	// 窗口内的数量不受影响
	numbers, err := s.svc.GetNotificationsNumbers(context.Background(), uuid.NullUUID{})
	require.NoError(t, err)
	assert.Equal(t, 7, numbers.Total())

	deleted, err = sweeper.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	s := newScenario(t)
	sweeper := NewSweeper(s.f.Provider, Retention, time.Hour, nil).WithClock(func() time.Time { return now })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.Eventually(t, func() bool {
		remaining := 0
		err := s.f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
			var err error
			remaining, err = uow.Tracking().CountEntityOperations(ctx, repository.EntityOperationQuery{})
			return err
		})
		return err == nil && remaining == 6
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
