package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"ptvdata/config"
	"ptvdata/data/db/basic"
	"ptvdata/data/sqlstore"
	"ptvdata/lock"
	"ptvdata/logging"
	"ptvdata/messaging"
	"ptvdata/messaging/natsjetstream"
	"ptvdata/messaging/redisstreams"
	"ptvdata/metrics"
	"ptvdata/refcache"
)

// app 一次命令运行所需的依赖
type app struct {
	cfg      config.Config
	db       *basic.DB
	provider *sqlstore.Provider
	refs     *refcache.Provider
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   logging.Logger
	redis    *redis.Client
	closers  []func() error
}

func setupLogging(cfg config.LogConfig) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	l := logging.NewStdLoggerTo(os.Stderr, "ptvdata")
	l.SetLevel(level)
	logging.SetLogger(l)
	return nil
}

func newApp(cfg config.Config) (*app, error) {
	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}
	db, err := basic.New(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		db:       db,
		provider: sqlstore.NewProvider(db),
		registry: prometheus.NewRegistry(),
		logger:   logging.ComponentLogger("cmd"),
		closers:  []func() error{db.Close},
	}
	a.refs = refcache.NewProvider(a.provider, cfg.RefCache.Refresh)
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)
	a.metrics.WatchCache(a.refs)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(context.Background(), "close failed", logging.Error(err))
		}
	}
}

func (a *app) redisClient() *redis.Client {
	if a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.redis.Close)
	}
	return a.redis
}

// locker 按配置返回进程内锁或 Redis 锁
func (a *app) locker() lock.ILocker {
	if a.cfg.Lock.Backend != config.LockBackendRedis {
		return lock.NewLocal(a.cfg.Lock.Wait)
	}
	return lock.NewRedis(a.redisClient(), lock.RedisConfig{
		Prefix: a.cfg.Lock.Prefix,
		TTL:    a.cfg.Lock.TTL,
		Wait:   a.cfg.Lock.Wait,
	})
}

// publisher 按摘要后端返回发布者；未配置时返回 nil
func (a *app) publisher() (messaging.IPublisher, error) {
	switch a.cfg.DigestBackend() {
	case "":
		return nil, nil
	case config.DigestBackendRedis:
		return redisstreams.NewPublisher(a.redisClient(), redisstreams.Config{
			StreamPrefix: a.cfg.Digest.StreamPrefix,
			MaxLen:       a.cfg.Digest.MaxLen,
		}), nil
	}
	conn, err := nats.Connect(a.cfg.NATS.URL, nats.Name("ptvdata"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return conn.Drain() })
	p, err := natsjetstream.NewPublisher(conn, natsjetstream.Config{
		Stream:        a.cfg.NATS.Stream,
		SubjectPrefix: a.cfg.NATS.SubjectPrefix,
		MaxAge:        a.cfg.Notification.Retention(),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// serveMetrics 启用时在后台暴露 /metrics，ctx 结束时关闭
func (a *app) serveMetrics(ctx context.Context) {
	if !a.cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "metrics server failed", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
}
