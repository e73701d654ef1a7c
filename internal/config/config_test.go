package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
scale:
  port: /dev/ttyS3
  baud_rate: 4800
printer:
  default_mode: ip
  host: 10.0.0.7
server:
  listen: 0.0.0.0:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS3", cfg.Scale.Port)
	assert.Equal(t, 4800, cfg.Scale.BaudRate)
	assert.Equal(t, 5*time.Second, cfg.Scale.PollInterval)
	assert.Equal(t, "ip", cfg.Printer.DefaultMode)
	assert.Equal(t, "10.0.0.7", cfg.Printer.Host)
	assert.Equal(t, 9100, cfg.Printer.Port)
	assert.Equal(t, 10*time.Second, cfg.Printer.WriteTimeout)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

func TestLoad_ZeroValuesFallBackToDefaults(t *testing.T) {
	path := writeConfig(t, `
scale:
  baud_rate: 0
printer:
  copies: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9600, cfg.Scale.BaudRate)
	assert.Equal(t, 1, cfg.Printer.Copies)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCALEBRIDGE_SCALE_PORT", "COM7")
	t.Setenv("SCALEBRIDGE_SCALE_BAUD_RATE", "19200")
	t.Setenv("SCALEBRIDGE_NATS_URL", "nats://broker:4222")

	cfg, err := Load(writeConfig(t, "scale:\n  port: COM1\n"))
	require.NoError(t, err)

	assert.Equal(t, "COM7", cfg.Scale.Port)
	assert.Equal(t, 19200, cfg.Scale.BaudRate)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.False(t, cfg.InfluxDB.Enabled)
}

func TestLoad_UpdateDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "update:\n  check_interval_hours: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Update.CheckIntervalHours)
	assert.Equal(t, "NowakAdmin/ScaleBridge", cfg.Update.GitHubRepo)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown print mode", mutate: func(c *Config) { c.Printer.DefaultMode = "fax" }, wantErr: true},
		{name: "empty listen", mutate: func(c *Config) { c.Server.Listen = " " }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Printer.Port = 70000 }, wantErr: true},
		{name: "nats without url", mutate: func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, wantErr: true},
		{name: "mqtt bad qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "influxdb without bucket", mutate: func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "" }, wantErr: true},
		{name: "influxdb enabled", mutate: func(c *Config) { c.InfluxDB.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Scale.Port = "/dev/ttyACM0"
	require.NoError(t, SaveTo(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", loaded.Scale.Port)
}
