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
	path := filepath.Join(t.TempDir(), "wxforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
stations:
  - name: backyard
    type: davislive
    enabled: true
    hostname: 192.168.1.50
    rollover_hour: 9
    use_dst_shifted_rollover: true
    primary_wind_channel: 1
    rain_gauge_type: metric
  - name: paddock
    type: instromet
    enabled: true
    serial_device: /dev/ttyUSB0
    baud: 19200
sinks:
  timescaledb:
    connection_string: postgres://wx:wx@localhost/wx
  nats:
    url: nats://localhost:4222
    subject_prefix: wx
status:
  port: 8090
state_db: /var/lib/wxforge/state.db
`)

	p := NewYAMLProvider(path)
	cfg, err := p.LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Stations, 2)
	assert.Equal(t, "davislive", cfg.Stations[0].Type)
	assert.Equal(t, 9, cfg.Stations[0].RolloverHour)
	assert.True(t, cfg.Stations[0].UseDSTShiftedRollover)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Stations[1].SerialDevice)

	sinks, err := p.GetSinks()
	require.NoError(t, err)
	require.NotNil(t, sinks.TimescaleDB)
	assert.Equal(t, "nats://localhost:4222", sinks.NATS.URL)
	assert.Equal(t, 8090, cfg.Status.Port)
}

func TestValidationRejectsBadRolloverHour(t *testing.T) {
	path := writeConfig(t, `
stations:
  - name: backyard
    type: ecowitt
    rollover_hour: 7
`)
	_, err := NewYAMLProvider(path).LoadConfig()
	assert.Error(t, err)
}

func TestValidationRejectsDuplicateNames(t *testing.T) {
	path := writeConfig(t, `
stations:
  - name: backyard
    type: ecowitt
  - name: backyard
    type: tempest
`)
	_, err := NewYAMLProvider(path).LoadConfig()
	assert.Error(t, err)
}
