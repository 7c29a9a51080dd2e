package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.History.PageSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Notification.Retention())
	assert.Equal(t, LockBackendLocal, cfg.Lock.Backend)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ptvdata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: pgx
  dsn: postgres://ptv@localhost/ptv
  max_open_conns: 20
lock:
  backend: redis
  wait: 2s
nats:
  url: nats://localhost:4222
notification:
  sweepInterval: 15m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, LockBackendRedis, cfg.Lock.Backend)
	assert.Equal(t, 2*time.Second, cfg.Lock.Wait)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "PTV_NOTIFICATIONS", cfg.NATS.Stream)
	assert.Equal(t, 15*time.Minute, cfg.Notification.SweepInterval)
	assert.Equal(t, 30, cfg.Notification.RetentionDays)
}

func TestLoad_UnknownFieldIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  pageSizes: 20\n"), 0o600))

	_, err := Load(path)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PTVDATA_DB_DSN":          "postgres://env",
		"PTVDATA_NATS_URL":        "nats://env:4222",
		"PTVDATA_METRICS_ENABLED": "true",
	}
	cfg := DefaultConfig()
	require.NoError(t, applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "postgres://env", cfg.Database.DSN)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.True(t, cfg.Metrics.Enabled)

	env["PTVDATA_METRICS_ENABLED"] = "sometimes"
	assert.Error(t, applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"page size":      func(c *Config) { c.History.PageSize = 25 },
		"lock backend":   func(c *Config) { c.Lock.Backend = "etcd" },
		"redis addr":     func(c *Config) { c.Lock.Backend = LockBackendRedis; c.Redis.Addr = "" },
		"retention":      func(c *Config) { c.Notification.RetentionDays = 0 },
		"driver":         func(c *Config) { c.Database.Driver = "" },
		"negative cache": func(c *Config) { c.RefCache.Refresh = -time.Second },
		"digest backend": func(c *Config) { c.Digest.Backend = "kafka" },
		"digest nats":    func(c *Config) { c.Digest.Backend = DigestBackendNATS },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))
			assert.False(t, strings.Contains(err.Error(), "%!"))
		})
	}
}

func TestDigestBackend(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.DigestBackend())

	cfg.NATS.URL = "nats://localhost:4222"
	assert.Equal(t, DigestBackendNATS, cfg.DigestBackend())

	cfg.Digest.Backend = DigestBackendRedis
	assert.Equal(t, DigestBackendRedis, cfg.DigestBackend())
	assert.NoError(t, cfg.Validate())
}
