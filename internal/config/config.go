package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const passwordEnv = "OPENSPRINKLER_PASSWORD"

type Device struct {
	Host                  string `json:"host" yaml:"host"`
	Port                  int    `json:"port" yaml:"port"`
	Password              string `json:"password" yaml:"password"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// BaseURL returns the device API root, e.g. "http://10.0.1.31:8080".
func (d Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.Host, d.Port)
}

type MQTT struct {
	Broker      string `json:"broker" yaml:"broker"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte   `json:"qos" yaml:"qos"`
}

type InfluxDB struct {
	URL    string `json:"url" yaml:"url"`
	Token  string `json:"token" yaml:"token"`
	Org    string `json:"org" yaml:"org"`
	Bucket string `json:"bucket" yaml:"bucket"`
}

// Service describes the systemd unit written by -install-service.
type Service struct {
	UnitPath string `json:"unit_path" yaml:"unit_path"`
	User     string `json:"user" yaml:"user"`
	WorkDir  string `json:"work_dir" yaml:"work_dir"`
	ExecPath string `json:"exec_path" yaml:"exec_path"`
}

type Config struct {
	ConfigFile     string        `json:"-" yaml:"-"`
	DBPath         string        `json:"-" yaml:"-"`
	LogFile        string        `json:"-" yaml:"-"`
	LogLevel       zerolog.Level `json:"-" yaml:"-"`
	InstallService bool          `json:"-" yaml:"-"`

	Device Device `json:"device" yaml:"device"`

	PollIntervalSeconds int `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	SnapshotRetention   int `json:"snapshot_retention" yaml:"snapshot_retention"`
	APIPort             int `json:"api_port" yaml:"api_port"`

	NtfyServer string `json:"ntfy_server" yaml:"ntfy_server"`
	NtfyTopic  string `json:"ntfy_topic" yaml:"ntfy_topic"`

	// Consecutive failed polls before a notification is sent.
	NotifyAfterFailures int `json:"notify_after_failures" yaml:"notify_after_failures"`

	EnableDatadog bool     `json:"enable_datadog" yaml:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr" yaml:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace" yaml:"dd_namespace"`
	DDTags        []string `json:"dd_tags" yaml:"dd_tags"`

	MQTT     MQTT     `json:"mqtt" yaml:"mqtt"`
	InfluxDB InfluxDB `json:"influxdb" yaml:"influxdb"`
	Service  Service  `json:"service" yaml:"service"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file (.json, .yaml)")
	flag.StringVar(&cfg.DBPath, "db", "data/sprinkler.db", "Path to SQLite database")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "log-file", "/var/log/sprinkler-controller.log", "Path to log file")
	flag.BoolVar(&cfg.InstallService, "install-service", false, "Write the systemd unit and exit")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	if err := cfg.loadFile(); err != nil {
		panic(err.Error())
	}
	cfg.validate()
	return cfg
}

// LoadFile reads path without touching command line flags. Tools that
// share the daemon's config file use it.
func LoadFile(path string) Config {
	cfg := Config{ConfigFile: path, LogLevel: zerolog.InfoLevel}
	if err := cfg.loadFile(); err != nil {
		panic(err.Error())
	}
	cfg.validate()
	return cfg
}

func (cfg *Config) loadFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("Failed to load .env file: %w", err)
	}
	if err := readFile(cfg.ConfigFile, cfg); err != nil {
		return err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return nil
}

// readFile decodes a JSON or YAML config file into cfg, chosen by extension.
func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Failed to load config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("Failed to parse config file: %w", err)
	}
	return nil
}

func (cfg *Config) applyEnv() {
	if pw, ok := os.LookupEnv(passwordEnv); ok && pw != "" {
		cfg.Device.Password = pw
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Device.Port == 0 {
		cfg.Device.Port = 8080
	}
	if cfg.Device.RequestTimeoutSeconds == 0 {
		cfg.Device.RequestTimeoutSeconds = 10
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 60
	}
	if cfg.SnapshotRetention == 0 {
		cfg.SnapshotRetention = 500
	}
	if cfg.APIPort == 0 {
		cfg.APIPort = 8090
	}
	if cfg.NtfyServer == "" {
		cfg.NtfyServer = "https://ntfy.sh"
	}
	if cfg.NotifyAfterFailures == 0 {
		cfg.NotifyAfterFailures = 3
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "opensprinkler"
	}
	if cfg.MQTT.QoS == 0 {
		cfg.MQTT.QoS = 1
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "sprinkler-controller"
	}
	if cfg.Service.UnitPath == "" {
		cfg.Service.UnitPath = "/etc/systemd/system/sprinkler-controller.service"
	}
	if cfg.Service.ExecPath == "" {
		cfg.Service.ExecPath = "/usr/local/bin/sprinkler-controller"
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var missingFields []string

	if cfg.Device.Host == "" {
		missingFields = append(missingFields, "device.host")
	}
	if cfg.Device.Password == "" {
		missingFields = append(missingFields, "device.password (or "+passwordEnv+")")
	}
	if cfg.InfluxDB.URL != "" && (cfg.InfluxDB.Org == "" || cfg.InfluxDB.Bucket == "") {
		missingFields = append(missingFields, "influxdb.org and influxdb.bucket")
	}

	if len(missingFields) > 0 {
		panic("Missing required config fields: " + strings.Join(missingFields, ", "))
	}
	if cfg.PollIntervalSeconds <= 0 {
		panic(fmt.Sprintf("Invalid poll_interval_seconds %d: must be positive", cfg.PollIntervalSeconds))
	}
	if cfg.Device.RequestTimeoutSeconds <= 0 {
		panic(fmt.Sprintf("Invalid device.request_timeout_seconds %d: must be positive", cfg.Device.RequestTimeoutSeconds))
	}
	if cfg.MQTT.QoS > 2 {
		panic(fmt.Sprintf("Invalid mqtt.qos %d: must be 1 or 2", cfg.MQTT.QoS))
	}
}
