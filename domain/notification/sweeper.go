package notification

import (
	"context"
	"time"

	"ptvdata/domain/repository"
	"ptvdata/logging"
	"ptvdata/metrics"
)

// Sweeper 周期性删除超出保留期的跟踪记录
type Sweeper struct {
	uow       repository.IProvider
	retention time.Duration
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    logging.Logger
	now       func() time.Time
}

// NewSweeper 创建清理器；retention 或 interval 非正时使用默认值
func NewSweeper(uow repository.IProvider, retention, interval time.Duration, m *metrics.Metrics) *Sweeper {
	if retention <= 0 {
		retention = Retention
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		uow:       uow,
		retention: retention,
		interval:  interval,
		metrics:   m,
		logger:    logging.ComponentLogger("notification.sweeper"),
		now:       time.Now,
	}
}

// WithClock 替换时钟，测试用
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	cp := *s
	cp.now = now
	return &cp
}

// SweepOnce 删除早于保留期的跟踪记录，返回删除行数
//
// 清理不产生跟踪记录，以不跟踪模式保存。
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	var deleted int64
	err := s.uow.ExecuteWriter(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		n, err := uow.Tracking().DeleteBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted = n
		return uow.Save(ctx, repository.SaveModeNonTracked)
	})
	if err != nil {
		return 0, err
	}
	s.metrics.AddSwept(deleted)
	if deleted > 0 {
		s.logger.Info(ctx, "tracking records swept",
			logging.Int64("deleted", deleted),
			logging.String("cutoff", cutoff.Format(time.RFC3339)))
	}
	return deleted, nil
}

// Run 立即清理一次，之后按间隔清理，直到 ctx 结束
//
// 单次清理失败只记录日志，下一个周期重试。
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "tracking sweep failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
