package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "SCALEBRIDGE_"

type ScaleConfig struct {
	Port               string        `yaml:"port"`
	BaudRate           int           `yaml:"baud_rate"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	SimulationInterval time.Duration `yaml:"simulation_interval"`
	SimulationBaseline int           `yaml:"simulation_baseline"`
}

type PrinterConfig struct {
	DefaultMode   string        `yaml:"default_mode"`
	PrinterName   string        `yaml:"printer_name,omitempty"`
	Host          string        `yaml:"host,omitempty"`
	Port          int           `yaml:"port,omitempty"`
	Copies        int           `yaml:"copies"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
	TemplatePath  string        `yaml:"template_path,omitempty"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Debug   bool   `yaml:"debug"`
	Console bool   `yaml:"console"`
	File    bool   `yaml:"file"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token,omitempty"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
	// Station tags every point so several weighbridges can share a bucket.
	Station       string `yaml:"station"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

type UpdateConfig struct {
	GitHubRepo         string `yaml:"github_repo"`
	CheckIntervalHours int    `yaml:"check_interval_hours"`
}

type Config struct {
	Scale    ScaleConfig    `yaml:"scale"`
	Printer  PrinterConfig  `yaml:"printer"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	NATS     NATSConfig     `yaml:"nats"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Update   UpdateConfig   `yaml:"update"`
}

func Default() *Config {
	port := "/dev/ttyUSB0"
	if runtime.GOOS == "windows" {
		port = "COM1"
	}

	return &Config{
		Scale: ScaleConfig{
			Port:               port,
			BaudRate:           9600,
			PollInterval:       5 * time.Second,
			SimulationInterval: time.Second,
			SimulationBaseline: 25000,
		},
		Printer: PrinterConfig{
			DefaultMode:   "html",
			Port:          9100,
			Copies:        1,
			WriteTimeout:  10 * time.Second,
			ProbeTimeout:  4 * time.Second,
			RenderTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:3055",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "scalebridge.events",
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://127.0.0.1:1883",
			ClientID:    "scalebridge",
			TopicPrefix: "scalebridge",
			QoS:         0,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://127.0.0.1:8086",
			Org:           "scalebridge",
			Bucket:        "weighbridge",
			Station:       "waga-1",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Update: UpdateConfig{
			GitHubRepo:         "NowakAdmin/ScaleBridge",
			CheckIntervalHours: 6,
		},
	}
}

func LoadOrCreateDefault() (*Config, error) {
	if _, err := os.Stat(Path()); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		applyEnvOverrides(cfg)
		if errSave := Save(cfg); errSave != nil {
			return nil, errSave
		}
		return cfg, nil
	}

	return Load(Path())
}

// Load reads path on top of Default(), then applies SCALEBRIDGE_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.fillDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return err
	}

	return SaveTo(Path(), cfg)
}

func SaveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) fillDefaults() {
	def := Default()

	if c.Scale.BaudRate <= 0 {
		c.Scale.BaudRate = def.Scale.BaudRate
	}
	if c.Scale.PollInterval <= 0 {
		c.Scale.PollInterval = def.Scale.PollInterval
	}
	if c.Scale.SimulationInterval <= 0 {
		c.Scale.SimulationInterval = def.Scale.SimulationInterval
	}
	if c.Printer.Port <= 0 {
		c.Printer.Port = def.Printer.Port
	}
	if c.Printer.Copies <= 0 {
		c.Printer.Copies = 1
	}
	if c.Printer.WriteTimeout <= 0 {
		c.Printer.WriteTimeout = def.Printer.WriteTimeout
	}
	if c.Printer.ProbeTimeout <= 0 {
		c.Printer.ProbeTimeout = def.Printer.ProbeTimeout
	}
	if c.Printer.RenderTimeout <= 0 {
		c.Printer.RenderTimeout = def.Printer.RenderTimeout
	}
	if c.Update.CheckIntervalHours <= 0 {
		c.Update.CheckIntervalHours = def.Update.CheckIntervalHours
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen is required")
	}

	switch strings.ToLower(c.Printer.DefaultMode) {
	case "", "html", "local", "ip", "pdf":
	default:
		return fmt.Errorf("printer.default_mode %q is not one of html, local, ip, pdf", c.Printer.DefaultMode)
	}

	if c.Printer.Port < 0 || c.Printer.Port > 65535 {
		return fmt.Errorf("printer.port %d out of range", c.Printer.Port)
	}

	if c.NATS.Enabled && strings.TrimSpace(c.NATS.URL) == "" {
		return errors.New("nats.url is required when nats is enabled")
	}

	if c.MQTT.Enabled && strings.TrimSpace(c.MQTT.Broker) == "" {
		return errors.New("mqtt.broker is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && (strings.TrimSpace(c.InfluxDB.URL) == "" || c.InfluxDB.Bucket == "") {
		return errors.New("influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envPrefix + "SCALE_PORT"); v != "" {
		cfg.Scale.Port = v
	}
	if v := os.Getenv(envPrefix + "SCALE_BAUD_RATE"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			cfg.Scale.BaudRate = baud
		}
	}
	if v := os.Getenv(envPrefix + "SERVER_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv(envPrefix + "LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "NATS_URL"); v != "" {
		cfg.NATS.URL = v
		cfg.NATS.Enabled = true
	}
	if v := os.Getenv(envPrefix + "MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv(envPrefix + "MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv(envPrefix + "INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
		cfg.InfluxDB.Enabled = true
	}
	if v := os.Getenv(envPrefix + "INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

func Dir() string {
	programData := os.Getenv("ProgramData")
	if runtime.GOOS == "windows" {
		if programData == "" {
			programData = "C:\\ProgramData"
		}
		return filepath.Join(programData, "ScaleBridge")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	return filepath.Join(configDir, "scalebridge")
}

func LogDir() string {
	return filepath.Join(Dir(), "logs")
}

func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}
