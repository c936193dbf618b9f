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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ModeOpen, cfg.Issuance.Mode)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./links.json", cfg.Storage.FilePath)
	assert.Equal(t, 24.0, cfg.Tokens.DefaultHours)
	assert.True(t, cfg.Tokens.EvictExpired)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestLoad_FileValues(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "8081"
issuance:
  mode: admin
admin:
  password: hunter2
session:
  secret: s3cret
  ttl: 2h
tokens:
  evict_expired: false
  sweep_interval: 10m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, ModeAdmin, cfg.Issuance.Mode)
	assert.Equal(t, "hunter2", cfg.Admin.Password)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Tokens.EvictExpired)
	assert.Equal(t, 10*time.Minute, cfg.Tokens.SweepInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"8081\"\n")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "redis")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Run("PORT is honoured", func(t *testing.T) {
		t.Setenv("PORT", "8088")
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "8088", cfg.Server.Port)
	})

	t.Run("SERVER_PORT wins over PORT", func(t *testing.T) {
		t.Setenv("PORT", "8088")
		t.Setenv("SERVER_PORT", "9099")
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "9099", cfg.Server.Port)
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"admin mode without credential", "issuance:\n  mode: admin\nsession:\n  secret: x\n"},
		{"admin mode without session secret", "issuance:\n  mode: admin\nadmin:\n  password: x\n"},
		{"unknown mode", "issuance:\n  mode: both\n"},
		{"unknown driver", "storage:\n  driver: sqlite\n"},
		{"malformed yaml", "server: [port\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
