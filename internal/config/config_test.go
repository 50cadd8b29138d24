package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestReadFile_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"device": {"host": "10.0.1.31", "port": 80, "password": "opendoor"},
		"poll_interval_seconds": 15,
		"dd_tags": ["site:home"],
		"mqtt": {"broker": "tcp://localhost:1883", "qos": 2}
	}`)

	var cfg Config
	require.NoError(t, readFile(path, &cfg))
	assert.Equal(t, "10.0.1.31", cfg.Device.Host)
	assert.Equal(t, 80, cfg.Device.Port)
	assert.Equal(t, 15, cfg.PollIntervalSeconds)
	assert.Equal(t, []string{"site:home"}, cfg.DDTags)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "http://10.0.1.31:80", cfg.Device.BaseURL())
}

func TestReadFile_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
device:
  host: sprinkler.local
  password: opendoor
snapshot_retention: 50
influxdb:
  url: http://localhost:8086
  org: home
  bucket: irrigation
`)

	var cfg Config
	require.NoError(t, readFile(path, &cfg))
	assert.Equal(t, "sprinkler.local", cfg.Device.Host)
	assert.Equal(t, 50, cfg.SnapshotRetention)
	assert.Equal(t, "irrigation", cfg.InfluxDB.Bucket)
}

func TestReadFile_Errors(t *testing.T) {
	var cfg Config
	assert.Error(t, readFile(filepath.Join(t.TempDir(), "missing.json"), &cfg))

	path := writeConfig(t, "bad.json", `{"device": `)
	assert.Error(t, readFile(path, &cfg))
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Device: Device{Host: "h", Password: "p"}}
	cfg.applyDefaults()

	assert.Equal(t, 8080, cfg.Device.Port)
	assert.Equal(t, 10, cfg.Device.RequestTimeoutSeconds)
	assert.Equal(t, 60, cfg.PollIntervalSeconds)
	assert.Equal(t, 500, cfg.SnapshotRetention)
	assert.Equal(t, 8090, cfg.APIPort)
	assert.Equal(t, "opensprinkler", cfg.MQTT.TopicPrefix)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "https://ntfy.sh", cfg.NtfyServer)
	assert.Equal(t, 3, cfg.NotifyAfterFailures)
	assert.Equal(t, "/etc/systemd/system/sprinkler-controller.service", cfg.Service.UnitPath)

	cfg = Config{PollIntervalSeconds: 5, APIPort: 9000}
	cfg.applyDefaults()
	assert.Equal(t, 5, cfg.PollIntervalSeconds)
	assert.Equal(t, 9000, cfg.APIPort)
}

func TestApplyEnv_PasswordOverride(t *testing.T) {
	t.Setenv(passwordEnv, "from-env")
	cfg := Config{Device: Device{Password: "from-file"}}
	cfg.applyEnv()
	assert.Equal(t, "from-env", cfg.Device.Password)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		panics bool
	}{
		{"valid", Config{Device: Device{Host: "h", Password: "p"}}, false},
		{"missing host", Config{Device: Device{Password: "p"}}, true},
		{"missing password", Config{Device: Device{Host: "h"}}, true},
		{"influx without bucket", Config{Device: Device{Host: "h", Password: "p"}, InfluxDB: InfluxDB{URL: "http://x", Org: "o"}}, true},
		{"bad qos", Config{Device: Device{Host: "h", Password: "p"}, MQTT: MQTT{QoS: 3}}, true},
		{"negative poll interval", Config{Device: Device{Host: "h", Password: "p"}, PollIntervalSeconds: -5}, true},
		{"negative request timeout", Config{Device: Device{Host: "h", Password: "p", RequestTimeoutSeconds: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.applyDefaults()
			if tt.panics {
				assert.Panics(t, tt.cfg.validate)
			} else {
				assert.NotPanics(t, tt.cfg.validate)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(passwordEnv, "")
	path := writeConfig(t, "config.yml", "device:\n  host: 10.0.1.31\n  password: opendoor\n")

	cfg := LoadFile(path)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "http://10.0.1.31:8080", cfg.Device.BaseURL())
	assert.Equal(t, 60, cfg.PollIntervalSeconds)

	missing := writeConfig(t, "empty.yml", "api_port: 9000\n")
	assert.Panics(t, func() { LoadFile(missing) })
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("verbose"))
}
