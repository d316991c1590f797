package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fideliza-backend", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "America/Sao_Paulo", cfg.Database.Timezone)
	assert.Equal(t, 30, cfg.Loyalty.DefaultRewardValidityDays)
	assert.Equal(t, 5000, cfg.Loyalty.ExportRowsMax)
	assert.True(t, cfg.IsDebug())
	assert.False(t, cfg.IsRelease())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  mode: release
  port: 9090
database:
  host: db.internal
  name: fideliza_prod
loyalty:
  default_reward_validity_days: 45
cron:
  secret: topsecret
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsRelease())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 45, cfg.Loyalty.DefaultRewardValidityDays)
	assert.Equal(t, "topsecret", cfg.Cron.Secret)

	// Unset keys keep their defaults.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 60, cfg.Loyalty.FeatureCacheTTL)
}

func TestDSN(t *testing.T) {
	d := &DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		Name: "fideliza", SSLMode: "disable", Timezone: "UTC",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=u password=p dbname=fideliza sslmode=disable TimeZone=UTC",
		d.DSN())
}

func TestRedisAddr(t *testing.T) {
	r := &RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
