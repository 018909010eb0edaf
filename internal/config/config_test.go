package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, DefaultRedisPrefix, cfg.Store.Redis.Prefix)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := load("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 3s
store:
  driver: redis
  redis:
    addr: redis:6379
    db: 2
lock:
  distributed: true
log:
  format: json
metrics:
  enabled: true
`)

	cfg, err := load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, DefaultRedisPrefix, cfg.Store.Redis.Prefix)
	assert.True(t, cfg.Lock.Distributed)
	assert.Equal(t, DefaultLockTTL, cfg.Lock.TTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := load(path, env(map[string]string{
		"STATECRAFT_SERVER_PORT":     "7070",
		"STATECRAFT_METRICS_ENABLED": "true",
		"STATECRAFT_LOCK_TTL":        "5s",
		"STATECRAFT_SEED_DIR":        "./flows",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "./flows", cfg.Seed.Dir)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		vars    map[string]string
		wantErr error
	}{
		{name: "port out of range", vars: map[string]string{"STATECRAFT_SERVER_PORT": "70000"}, wantErr: ErrInvalidPort},
		{name: "unknown driver", yaml: "store:\n  driver: etcd\n", wantErr: ErrInvalidStoreDriver},
		{name: "redis without addr", yaml: "store:\n  driver: redis\n  redis:\n    addr: \"\"\n", wantErr: ErrRedisAddrRequired},
		{name: "file without dir", vars: map[string]string{"STATECRAFT_STORE_DRIVER": "file", "STATECRAFT_STORE_FILE_DIR": ""}, wantErr: ErrFileDirRequired},
		{name: "distributed lock on memory", yaml: "lock:\n  distributed: true\n", wantErr: ErrDistributedLockStore},
		{name: "bad log level", vars: map[string]string{"STATECRAFT_LOG_LEVEL": "loud"}, wantErr: ErrInvalidLogLevel},
		{name: "bad log format", yaml: "log:\n  format: xml\n", wantErr: ErrInvalidLogFormat},
		{name: "zero shutdown timeout", yaml: "server:\n  shutdown_timeout: 0s\n", wantErr: ErrInvalidShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}
			_, err := load(path, env(tt.vars))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "server:\n  prot: 9090\n")

	_, err := load(path, env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
