// Package metrics 汇总数据访问层的 Prometheus 指标
//
// 所有方法都允许在 nil 接收者上调用，未启用指标时直接传 nil。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ptvdata/cache"
)

// Metrics 数据访问层指标
type Metrics struct {
	// 历史查询耗时，按查询种类（entity / connection）与实体类别
	HistoryLatency *prometheus.HistogramVec

	// 补齐规则命中次数
	PolyfillRule *prometheus.CounterVec

	// 生命周期步骤结果，按阶段与状态
	LifecycleStep *prometheus.CounterVec

	// 通知计数查询耗时
	NotificationLatency prometheus.Histogram

	// 保留期清理删除的行数
	SweepDeleted prometheus.Counter

	// 发布锁等待耗时
	LockWait prometheus.Histogram

	reg prometheus.Registerer
}

// New 在 reg 上注册全部指标；reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,

		HistoryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ptvdata_history_query_duration_seconds",
			Help:    "Duration of history queries by query type and entity kind",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"query", "kind"}),

		PolyfillRule: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ptvdata_history_polyfill_total",
			Help: "History rows filled from another version by precedence rule",
		}, []string{"kind", "rule"}),

		LifecycleStep: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ptvdata_lifecycle_steps_total",
			Help: "Lifecycle save steps by phase and outcome",
		}, []string{"phase", "status"}),

		NotificationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ptvdata_notification_numbers_duration_seconds",
			Help:    "Duration of notification count queries",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		SweepDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "ptvdata_tracking_swept_total",
			Help: "Tracking rows deleted by the retention sweep",
		}),

		LockWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ptvdata_publish_lock_wait_seconds",
			Help:    "Time spent waiting for the publish lock",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

// ObserveHistory 记录一次历史查询
func (m *Metrics) ObserveHistory(query, kind string, d time.Duration) {
	if m != nil {
		m.HistoryLatency.WithLabelValues(query, kind).Observe(d.Seconds())
	}
}

// IncPolyfill 记录一次补齐
func (m *Metrics) IncPolyfill(kind, rule string) {
	if m != nil {
		m.PolyfillRule.WithLabelValues(kind, rule).Inc()
	}
}

// IncLifecycleStep 记录一个保存步骤的结果
func (m *Metrics) IncLifecycleStep(phase, status string) {
	if m != nil {
		m.LifecycleStep.WithLabelValues(phase, status).Inc()
	}
}

func (m *Metrics) ObserveNotificationNumbers(d time.Duration) {
	if m != nil {
		m.NotificationLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) AddSwept(n int64) {
	if m != nil && n > 0 {
		m.SweepDeleted.Add(float64(n))
	}
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m != nil {
		m.LockWait.Observe(d.Seconds())
	}
}

// CacheSource 可导出统计的进程内缓存
type CacheSource interface {
	Name() string
	Stats() cache.Stats
}

// WatchCache 导出缓存命中、未命中、淘汰、过期与条目数，采集时读取，每个缓存名只能注册一次
func (m *Metrics) WatchCache(src CacheSource) {
	if m == nil {
		return
	}
	f := promauto.With(m.reg)
	labels := prometheus.Labels{"cache": src.Name()}
	counter := func(name, help string, read func(cache.Stats) int64) {
		f.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help, ConstLabels: labels}, func() float64 {
			return float64(read(src.Stats()))
		})
	}
	counter("ptvdata_cache_hits_total", "Cache lookups answered from memory", func(s cache.Stats) int64 { return s.Hits })
	counter("ptvdata_cache_misses_total", "Cache lookups that had to load", func(s cache.Stats) int64 { return s.Misses })
	counter("ptvdata_cache_evictions_total", "Entries evicted by the size limit", func(s cache.Stats) int64 { return s.Evictions })
	counter("ptvdata_cache_expires_total", "Entries dropped after their TTL", func(s cache.Stats) int64 { return s.Expires })
	f.NewGaugeFunc(prometheus.GaugeOpts{Name: "ptvdata_cache_entries", Help: "Entries currently held", ConstLabels: labels}, func() float64 {
		return float64(src.Stats().Size)
	})
}
