package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("SERVER_MODE", "")
	t.Setenv("JWT_SECRET", "")
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: memory
jwt:
  secret: local-secret
points:
  rules:
    study: 12
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, Defaults(), cfg.Planner)
	assert.Equal(t, 12, cfg.Points.Rules["study"])
	assert.Equal(t, 10, cfg.Points.MinutesPerBonus)
	assert.Equal(t, 600, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 90, cfg.AI.TimeoutSeconds)
}

func TestLoadConfigRejectsUnknownStorage(t *testing.T) {
	dir := writeConfig(t, "storage:\n  type: etcd\n")
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, `unsupported storage type "etcd"`)
}

func TestLoadConfigReleaseNeedsLongSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\n")
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "JWT secret is too short")
}

func TestAITimeout(t *testing.T) {
	assert.Equal(t, "1m30s", AIConfig{}.Timeout().String())
	assert.Equal(t, "5s", AIConfig{TimeoutSeconds: 5}.Timeout().String())
}
