package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://canvas.example.com
  token: secret
cache:
  root_dir: /var/cache/coursecache
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, LogLevelInfo, cfg.LogLevel)
	require.Equal(t, defaultCourseConcurrency, cfg.Sync.CourseConcurrency)
	require.Equal(t, defaultFileConcurrency, cfg.Sync.FileConcurrency)
	require.Equal(t, Duration(defaultProgressThrottle), cfg.Sync.ProgressThrottle)
	require.Equal(t, Duration(defaultMaxRunDuration), cfg.Sync.MaxRunDuration)
	require.Equal(t, Duration(defaultJobPollInterval), cfg.Sync.JobPollInterval)
	require.Equal(t, defaultJobPollRetries, cfg.Sync.JobPollRetries)
	require.Equal(t, Duration(defaultHTTPTimeout), cfg.API.Timeout)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://canvas.example.com
  timeout: 10s
sync:
  course_concurrency: 5
  progress_throttle: 150ms
  max_run_duration: 10m
  job_poll_interval: 2s
cache:
  root_dir: /var/cache/coursecache
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Sync.CourseConcurrency)
	require.Equal(t, Duration(150*time.Millisecond), cfg.Sync.ProgressThrottle)
	require.Equal(t, Duration(10*time.Minute), cfg.Sync.MaxRunDuration)
	require.Equal(t, Duration(2*time.Second), cfg.Sync.JobPollInterval)
	require.Equal(t, Duration(10*time.Second), cfg.API.Timeout)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://canvas.example.com
sync:
  progress_throttle: soon
cache:
  root_dir: /var/cache/coursecache
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot parse duration")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(envToken, "env-token")
	t.Setenv(envRedisURL, "redis://localhost:6380/1")

	path := writeConfig(t, `
redis_url: redis://localhost:6379/0
api:
  base_url: https://canvas.example.com
  token: yaml-token
cache:
  root_dir: /var/cache/coursecache
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "env-token", cfg.API.Token)
	require.Equal(t, "redis://localhost:6380/1", cfg.RedisURL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "Scenario 1: missing base url",
			content: `
cache:
  root_dir: /var/cache/coursecache
`,
		},
		{
			name: "Scenario 2: missing cache root",
			content: `
api:
  base_url: https://canvas.example.com
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
