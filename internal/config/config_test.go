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
	path := filepath.Join(t.TempDir(), "jam.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[world]
grid_width = 32
caching = false

[loop]
tick_rate = "50ms"
max_ticks = 100

[level]
source = "db"
name = "caves"
`))
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.World.GridWidth)
	assert.Equal(t, 16, cfg.World.GridHeight, "unset keys keep their default")
	assert.False(t, cfg.World.Caching)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.TickRate)
	assert.Equal(t, 100, cfg.Loop.MaxTicks)
	assert.Equal(t, "db", cfg.Level.Source)
	assert.Equal(t, "caves", cfg.Level.Name)
	assert.Equal(t, "scripts", cfg.Scripting.Dir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[world\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[level]\nsource = \"ftp\"\n"))
	assert.ErrorContains(t, err, "level.source")

	_, err = Load(writeConfig(t, "[loop]\ntick_rate = \"0s\"\n"))
	assert.ErrorContains(t, err, "tick_rate")

	_, err = Load(writeConfig(t, "[render]\nunits_per_row = 0.0\n"))
	assert.ErrorContains(t, err, "units_per_row")
}

func TestRefreshEveryClamped(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[world]\nrefresh_every = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.World.RefreshEvery)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, "config/jam.toml", Path("config/jam.toml"))
	t.Setenv(EnvPath, "/etc/jam.toml")
	assert.Equal(t, "/etc/jam.toml", Path("config/jam.toml"))
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "jam.toml"))
	require.NoError(t, err)
	assert.Equal(t, *Defaults(), *cfg)
}
