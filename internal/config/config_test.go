package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{botTokenEnv, channelIDEnv, dbPathEnv, logLevelEnv, railwayVolumeEnv, configPathEnv} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, defaultDBFile, cfg.Database.Path)
	assert.Equal(t, 3, cfg.Trends.Threshold)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.IngestEvery)
	assert.Equal(t, 2*time.Hour, cfg.Scheduler.DetectEvery)
	assert.Equal(t, "ru", cfg.Translate.TargetLanguage)
	assert.Len(t, cfg.Schedule, 4)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Error(t, cfg.Validate(), "token and channel are required")
}

func TestLoadFileOverridesAndKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  botToken: file-token
  channelId: "@file_channel"
  adminIds: [42]
scheduler:
  timezone: Europe/Berlin
  ingestEvery: 15m
trends:
  threshold: 5
schedule:
  - at: "08:30"
    kind: morning_briefing
`)

	cfg := LoadFile(path)
	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{42}, cfg.Telegram.AdminIDs)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.IngestEvery)
	assert.Equal(t, 2*time.Hour, cfg.Scheduler.DetectEvery)
	assert.Equal(t, 5, cfg.Trends.Threshold)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	require.Len(t, cfg.Schedule, 1)
	assert.Equal(t, "08:30", cfg.Schedule[0].At)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  botToken: file-token\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(botTokenEnv, "env-token")
	t.Setenv(channelIDEnv, "@env_channel")
	t.Setenv(logLevelEnv, "warn")

	cfg := Load()
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "@env_channel", cfg.Telegram.ChannelID)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadDatabasePathPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(railwayVolumeEnv, "/mnt/volume")

	cfg := LoadFile("")
	assert.Equal(t, filepath.Join(railwayDataDir, defaultDBFile), cfg.Database.Path)

	t.Setenv(dbPathEnv, "/tmp/explicit.db")
	cfg = LoadFile("")
	assert.Equal(t, "/tmp/explicit.db", cfg.Database.Path)
}

func TestLoadFallsBackOnBadInput(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, defaultDBFile, cfg.Database.Path)

	cfg = LoadFile(writeConfig(t, "trends: [not, a, map"))
	assert.Equal(t, 3, cfg.Trends.Threshold)

	cfg = LoadFile(writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n"))
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Telegram.BotToken = "t"
	cfg.Telegram.ChannelID = "@c"
	require.NoError(t, cfg.Validate())

	cfg.Trends.JitterMin = time.Hour
	cfg.Schedule = append(cfg.Schedule, ScheduleSlot{At: "7pm", Kind: "hot_topic"})
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jitterMax")
	assert.Contains(t, err.Error(), `"7pm"`)
}
