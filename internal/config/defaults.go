package config

import "time"

// Built-in defaults.
const (
	DefaultJobName             = "default-pipeline"
	DefaultRequirements        = "Standard CI pipeline."
	DefaultListenAddr          = ":8080"
	DefaultMaxBodyBytes        = 4 << 20
	DefaultCITimeout           = 30 * time.Second
	DefaultGeneratorTimeout    = 60 * time.Second
	DefaultGeminiModel         = "gemini-2.0-flash"
	DefaultGeminiEndpoint      = "https://generativelanguage.googleapis.com"
	DefaultMetricsPath         = "/metrics"
	DefaultProbeInterval       = 5 * time.Minute
	DefaultReloadDebounce      = 500 * time.Millisecond
	DefaultNATSStream          = "AUTOPIPE"
	DefaultNATSSubject         = "autopipe.outcomes"
	DefaultKafkaTopic          = "autopipe.outcomes"
	defaultServerReadTimeout   = 30 * time.Second
	defaultServerWriteTimeout  = 5 * time.Minute
	defaultServerShutdownGrace = 15 * time.Second
)

// applyDefaults fills unset fields. Enumerations are normalized here so validation only sees
// canonical values; an unknown provider is left for Validate to reject.
func applyDefaults(cfg *Config) error {
	s := &cfg.Server
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultServerReadTimeout
	}
	if s.WriteTimeout == 0 {
		// a submit may include a slow generation call
		s.WriteTimeout = defaultServerWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultServerShutdownGrace
	}

	if cfg.CI.DefaultJobName == "" {
		cfg.CI.DefaultJobName = DefaultJobName
	}
	if cfg.CI.Timeout == 0 {
		cfg.CI.Timeout = DefaultCITimeout
	}

	g := &cfg.Generator
	if p, err := ParseProvider(string(g.Provider)); err == nil {
		g.Provider = p
	}
	if g.Model == "" {
		g.Model = DefaultGeminiModel
	}
	if g.Endpoint == "" {
		g.Endpoint = DefaultGeminiEndpoint
	}
	if g.Timeout == 0 {
		g.Timeout = DefaultGeneratorTimeout
	}
	if g.DefaultRequirements == "" {
		g.DefaultRequirements = DefaultRequirements
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if n := cfg.Events.NATS; n != nil {
		if n.Stream == "" {
			n.Stream = DefaultNATSStream
		}
		if n.Subject == "" {
			n.Subject = DefaultNATSSubject
		}
	}
	if k := cfg.Events.Kafka; k != nil && k.Topic == "" {
		k.Topic = DefaultKafkaTopic
	}

	if p := cfg.Probe; p != nil && p.Interval == 0 {
		p.Interval = DefaultProbeInterval
	}
	if cfg.Daemon.ReloadDebounce == 0 {
		cfg.Daemon.ReloadDebounce = DefaultReloadDebounce
	}
	return nil
}
