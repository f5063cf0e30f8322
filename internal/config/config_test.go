package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultTunables(), cfg.Tunables)
	assert.False(t, cfg.StayPoints)
	assert.False(t, cfg.DaySimplification)
	assert.False(t, cfg.TripSimplification)
	assert.Equal(t, "daytrips.sqlite", cfg.Database)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DAYTRIPS_SHORT_ACTIVITY", "90s")
	t.Setenv("DAYTRIPS_LINEAR_THRESHOLD", "2000")
	t.Setenv("DAYTRIPS_ENABLE_STAY_POINTS", "true")
	t.Setenv("DAYTRIPS_DATABASE", "/tmp/samples.sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.ShortActivity)
	assert.Equal(t, 2000.0, cfg.LinearThreshold)
	assert.True(t, cfg.StayPoints)
	assert.Equal(t, "/tmp/samples.sqlite", cfg.Database)
}

func TestNormalizeFallsBackToDefaults(t *testing.T) {
	tun := Tunables{ShortActivity: time.Minute, SEDKeepRatio: 3}.Normalize()

	assert.Equal(t, time.Minute, tun.ShortActivity)
	assert.Equal(t, 0.65, tun.SEDKeepRatio)
	assert.Equal(t, 8, tun.SEDMinPoints)
	assert.Equal(t, 1500.0, tun.MinVehicleRadius)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", true)
	logger.Info("hidden")
	logger.Warn("shown", "trips", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"trips":3`)
}
