package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given on the command line.
const DefaultPath = "autopipe.yaml"

// Config is the complete autopipe configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CI        CIConfig        `yaml:"ci"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Events    EventsConfig    `yaml:"events,omitempty"`
	Probe     *ProbeConfig    `yaml:"probe,omitempty"`
	Daemon    DaemonConfig    `yaml:"daemon"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CIConfig holds the CI server client settings. Server address and credentials are per request.
type CIConfig struct {
	DefaultJobName string        `yaml:"default_job_name"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
}

// GeneratorConfig selects and configures the job definition generator.
type GeneratorConfig struct {
	Provider            ProviderKind  `yaml:"provider"`
	Model               string        `yaml:"model,omitempty"`
	Endpoint            string        `yaml:"endpoint,omitempty"`
	APIKey              string        `yaml:"api_key,omitempty"`
	Timeout             time.Duration `yaml:"timeout"`
	DefaultRequirements string        `yaml:"default_requirements"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig lists the optional outcome event sinks. Empty sections are disabled.
type EventsConfig struct {
	NATS  *NATSConfig  `yaml:"nats,omitempty"`
	Kafka *KafkaConfig `yaml:"kafka,omitempty"`
}

// NATSConfig publishes outcome events to a JetStream stream.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

// KafkaConfig publishes outcome events to a Kafka topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ProbeConfig enables the scheduled CI reachability probe used by /readyz.
type ProbeConfig struct {
	Server   string        `yaml:"server"`
	Username string        `yaml:"username"`
	Token    string        `yaml:"token"`
	Interval time.Duration `yaml:"interval"`
}

// DaemonConfig controls config hot reload.
type DaemonConfig struct {
	WatchConfig    bool          `yaml:"watch_config"`
	ReloadDebounce time.Duration `yaml:"reload_debounce"`
}

// Load reads, expands, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return Parse(data)
}

// LoadOptional behaves like Load but falls back to defaults when the file does not exist.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		loadEnvFiles()
		return Parse(nil)
	}
	return Load(path)
}

// Parse builds a Config from YAML bytes. Environment variables referenced as ${VAR} are expanded
// first, then overrides, defaults and validation run in that order.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").
				Fatal().
				Build()
		}
	}
	applyEnvOverrides(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration with every default applied and no file or env input.
func Default() *Config {
	var cfg Config
	_ = applyDefaults(&cfg)
	return &cfg
}
