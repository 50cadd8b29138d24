package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/env"
)

// ServiceUnit renders the systemd unit that runs the controller daemon.
func ServiceUnit(cfg *config.Config) string {
	var lines []string
	lines = append(lines,
		"[Unit]",
		"Description=OpenSprinkler controller monitor",
		"Wants=network-online.target",
		"After=network-online.target",
		"",
		"[Service]",
		"Type=simple",
	)
	if cfg.Service.User != "" {
		lines = append(lines, "User="+cfg.Service.User)
	}
	if cfg.Service.WorkDir != "" {
		lines = append(lines, "WorkingDirectory="+cfg.Service.WorkDir)
	}

	configFile := cfg.ConfigFile
	if abs, err := filepath.Abs(configFile); err == nil {
		configFile = abs
	}
	lines = append(lines,
		fmt.Sprintf("ExecStart=%s -config-file %s -db %s -log-file %s -log-level %s",
			cfg.Service.ExecPath, configFile, cfg.DBPath, cfg.LogFile, cfg.LogLevel),
		"Restart=on-failure",
		"RestartSec=5s",
		"",
		"[Install]",
		"WantedBy=multi-user.target",
	)
	return strings.Join(lines, "\n") + "\n"
}

func InstallService() error {
	path := env.Cfg.Service.UnitPath
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create unit directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ServiceUnit(env.Cfg)), 0644); err != nil {
		return fmt.Errorf("write unit %s: %w", path, err)
	}
	return nil
}
