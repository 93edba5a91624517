package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
store:
  backend: memory
workers:
  analyze-posting-pattern:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 500, cfg.Store.PageSize)
	assert.Equal(t, 0.85, cfg.Detection.SimilarityThreshold)
	assert.Equal(t, 30, cfg.Detection.RecentWindowDays)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
	assert.Equal(t, "info", cfg.Logging.Level)

	w := GetWorkerConfig(cfg, "analyze-posting-pattern")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30*time.Second, GetDuration(w.Timeout))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BROKER_HOST", "zeebe:26500")
	path := writeConfig(t, `
camunda:
  broker_address: ${BROKER_HOST}
store:
  backend: postgres
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing broker",
			body: "store:\n  backend: memory\n",
			want: "camunda.broker_address is required",
		},
		{
			name: "unknown backend",
			body: "camunda:\n  broker_address: x\nstore:\n  backend: cassandra\n",
			want: `store.backend "cassandra" is not supported`,
		},
		{
			name: "postgres without host",
			body: "camunda:\n  broker_address: x\n",
			want: "database.postgres.host is required",
		},
		{
			name: "cache without redis",
			body: "camunda:\n  broker_address: x\nstore:\n  backend: memory\n  cache:\n    enabled: true\n",
			want: "database.redis.address is required",
		},
		{
			name: "threshold out of range",
			body: "camunda:\n  broker_address: x\nstore:\n  backend: memory\ndetection:\n  similarity_threshold: 1.5\n",
			want: "detection.similarity_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"judge-posting-authenticity": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "judge-posting-authenticity"))
	assert.True(t, IsWorkerEnabled(cfg, "get-posting-record"))
}
