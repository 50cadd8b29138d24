package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ConfigFile: "/etc/sprinkler/config.yaml",
		DBPath:     "/var/lib/sprinkler/sprinkler.db",
		LogFile:    "/var/log/sprinkler-controller.log",
		LogLevel:   zerolog.DebugLevel,
		Service: config.Service{
			UnitPath: filepath.Join(t.TempDir(), "systemd", "sprinkler-controller.service"),
			User:     "pi",
			ExecPath: "/usr/local/bin/sprinkler-controller",
		},
	}
}

func TestServiceUnit(t *testing.T) {
	cfg := testConfig(t)
	unit := ServiceUnit(cfg)

	assert.Contains(t, unit, "User=pi\n")
	assert.NotContains(t, unit, "WorkingDirectory=")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/sprinkler-controller -config-file /etc/sprinkler/config.yaml "+
		"-db /var/lib/sprinkler/sprinkler.db -log-file /var/log/sprinkler-controller.log -log-level debug\n")
	assert.Contains(t, unit, "WantedBy=multi-user.target\n")
}

func TestInstallService(t *testing.T) {
	env.Cfg = testConfig(t)
	t.Cleanup(func() { env.Cfg = nil })

	require.NoError(t, InstallService())

	data, err := os.ReadFile(env.Cfg.Service.UnitPath)
	require.NoError(t, err)
	assert.Equal(t, ServiceUnit(env.Cfg), string(data))
}
