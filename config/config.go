// Package config 加载数据访问层的运行配置
//
// 配置来源依次为默认值、YAML 文件与环境变量，后者覆盖前者。
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	core "ptvdata/data/db"
	"ptvdata/domain/model"
	"ptvdata/domain/notification"
	"ptvdata/errors"
)

// 锁后端
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// 通知摘要的发布后端
const (
	DigestBackendNATS  = "nats"
	DigestBackendRedis = "redis"
)

type Config struct {
	Database     core.DBConfig      `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	NATS         NATSConfig         `yaml:"nats"`
	Digest       DigestConfig       `yaml:"digest"`
	Lock         LockConfig         `yaml:"lock"`
	History      HistoryConfig      `yaml:"history"`
	Notification NotificationConfig `yaml:"notification"`
	RefCache     RefCacheConfig     `yaml:"refcache"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Log          LogConfig          `yaml:"log"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// DigestConfig 通知摘要发布；Backend 为空时按是否配置了 NATS 地址决定
type DigestConfig struct {
	Backend      string `yaml:"backend"` // nats|redis
	StreamPrefix string `yaml:"streamPrefix"`
	MaxLen       int64  `yaml:"maxLen"`
}

// DigestBackend 实际使用的后端，空串表示不发布
func (c Config) DigestBackend() string {
	if c.Digest.Backend != "" {
		return c.Digest.Backend
	}
	if c.NATS.URL != "" {
		return DigestBackendNATS
	}
	return ""
}

type LockConfig struct {
	Backend string        `yaml:"backend"` // local|redis
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
	Wait    time.Duration `yaml:"wait"`
}

// HistoryConfig 历史查询配置；页大小由分页约定固定，只读
type HistoryConfig struct {
	PageSize int `yaml:"pageSize"`
}

type NotificationConfig struct {
	RetentionDays int           `yaml:"retentionDays"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// Retention 保留期时长
func (c NotificationConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type RefCacheConfig struct {
	// Refresh 引用数据快照的刷新间隔；0 表示直到显式失效
	Refresh time.Duration `yaml:"refresh"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig 默认配置：本地 sqlite、进程内锁、不发布摘要
func DefaultConfig() Config {
	return Config{
		Database: core.DBConfig{
			Driver:       "sqlite",
			DSN:          "file:ptvdata.db?_pragma=busy_timeout(5000)",
			MaxOpenConns: 1,
		},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		NATS:   NATSConfig{Stream: "PTV_NOTIFICATIONS", SubjectPrefix: "ptv."},
		Digest: DigestConfig{StreamPrefix: "ptv:", MaxLen: 10000},
		Lock: LockConfig{
			Backend: LockBackendLocal,
			Prefix:  "ptvdata:lock:",
			TTL:     30 * time.Second,
			Wait:    10 * time.Second,
		},
		History: HistoryConfig{PageSize: model.PageSize},
		Notification: NotificationConfig{
			RetentionDays: notification.RetentionDays,
			SweepInterval: time.Hour,
		},
		RefCache: RefCacheConfig{Refresh: 10 * time.Minute},
		Metrics:  MetricsConfig{Addr: ":9090"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load 读取配置文件并应用环境变量；path 为空时只使用默认值与环境变量
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, errors.WrapError(err, errors.ErrCodeInvalidInput, "decode config "+path)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// applyEnv 用 PTVDATA_* 环境变量覆盖连接地址等部署相关项
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"PTVDATA_DB_DRIVER":      &cfg.Database.Driver,
		"PTVDATA_DB_DSN":         &cfg.Database.DSN,
		"PTVDATA_REDIS_ADDR":     &cfg.Redis.Addr,
		"PTVDATA_REDIS_PASSWORD": &cfg.Redis.Password,
		"PTVDATA_NATS_URL":       &cfg.NATS.URL,
		"PTVDATA_LOCK_BACKEND":   &cfg.Lock.Backend,
		"PTVDATA_LOG_LEVEL":      &cfg.Log.Level,
		"PTVDATA_DIGEST_BACKEND": &cfg.Digest.Backend,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("PTVDATA_METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.WrapError(err, errors.ErrCodeInvalidInput, "PTVDATA_METRICS_ENABLED")
		}
		cfg.Metrics.Enabled = b
	}
	return nil
}

// Validate 校验配置
func (c Config) Validate() error {
	switch {
	case c.Database.Driver == "":
		return errors.NewError(errors.ErrCodeInvalidInput, "database.driver is required")
	case c.Database.DSN == "":
		return errors.NewError(errors.ErrCodeInvalidInput, "database.dsn is required")
	case c.Lock.Backend != LockBackendLocal && c.Lock.Backend != LockBackendRedis:
		return errors.Errorf(errors.ErrCodeInvalidInput, "lock.backend %q must be local or redis", c.Lock.Backend)
	case c.Lock.Backend == LockBackendRedis && c.Redis.Addr == "":
		return errors.NewError(errors.ErrCodeInvalidInput, "redis.addr is required for the redis lock backend")
	case c.Digest.Backend != "" && c.Digest.Backend != DigestBackendNATS && c.Digest.Backend != DigestBackendRedis:
		return errors.Errorf(errors.ErrCodeInvalidInput, "digest.backend %q must be nats or redis", c.Digest.Backend)
	case c.Digest.Backend == DigestBackendNATS && c.NATS.URL == "":
		return errors.NewError(errors.ErrCodeInvalidInput, "nats.url is required for the nats digest backend")
	case c.Digest.Backend == DigestBackendRedis && c.Redis.Addr == "":
		return errors.NewError(errors.ErrCodeInvalidInput, "redis.addr is required for the redis digest backend")
	case c.Lock.Wait <= 0 || c.Lock.TTL <= 0:
		return errors.NewError(errors.ErrCodeInvalidInput, "lock.ttl and lock.wait must be positive")
	case c.History.PageSize != model.PageSize:
		return errors.Errorf(errors.ErrCodeInvalidInput, "history.pageSize is fixed at %d", model.PageSize)
	case c.Notification.RetentionDays <= 0:
		return errors.NewError(errors.ErrCodeInvalidInput, "notification.retentionDays must be positive")
	case c.Notification.SweepInterval <= 0:
		return errors.NewError(errors.ErrCodeInvalidInput, "notification.sweepInterval must be positive")
	case c.RefCache.Refresh < 0:
		return errors.NewError(errors.ErrCodeInvalidInput, "refcache.refresh must not be negative")
	}
	return nil
}
