package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

const minProbeInterval = 10 * time.Second

// Validate checks a defaulted configuration. The first problem found is returned as a
// config-category ClassifiedError carrying the offending field.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateServer,
		validateCI,
		validateGenerator,
		validateMetrics,
		validateEvents,
		validateProbe,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func validateServer(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.ListenAddr) == "" {
		return invalid("server.listen_addr", "listen address cannot be empty")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return invalid("server.max_body_bytes", "max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.ShutdownTimeout < 0 {
		return invalid("server", "server timeouts cannot be negative")
	}
	return nil
}

func validateCI(cfg *Config) error {
	if strings.TrimSpace(cfg.CI.DefaultJobName) == "" {
		return invalid("ci.default_job_name", "default job name cannot be empty")
	}
	if cfg.CI.Timeout < 0 {
		return invalid("ci.timeout", "ci timeout cannot be negative")
	}
	return nil
}

func validateGenerator(cfg *Config) error {
	if _, err := ParseProvider(string(cfg.Generator.Provider)); err != nil {
		return invalid("generator.provider", "unsupported generator provider: %v", err)
	}
	if cfg.Generator.Provider == ProviderGemini {
		if _, err := url.ParseRequestURI(cfg.Generator.Endpoint); err != nil {
			return invalid("generator.endpoint", "invalid generator endpoint %q", cfg.Generator.Endpoint)
		}
	}
	if cfg.Generator.Timeout < 0 {
		return invalid("generator.timeout", "generator timeout cannot be negative")
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return invalid("metrics.path", "metrics path must start with '/', got %q", cfg.Metrics.Path)
	}
	return nil
}

func validateEvents(cfg *Config) error {
	if n := cfg.Events.NATS; n != nil && strings.TrimSpace(n.URL) == "" {
		return invalid("events.nats.url", "nats url is required when the nats section is present")
	}
	if k := cfg.Events.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			return invalid("events.kafka.brokers", "at least one kafka broker is required")
		}
		for _, b := range k.Brokers {
			if strings.TrimSpace(b) == "" {
				return invalid("events.kafka.brokers", "kafka broker address cannot be empty")
			}
		}
	}
	return nil
}

func validateProbe(cfg *Config) error {
	p := cfg.Probe
	if p == nil {
		return nil
	}
	if strings.TrimSpace(p.Server) == "" || strings.TrimSpace(p.Username) == "" || strings.TrimSpace(p.Token) == "" {
		return invalid("probe", "probe requires server, username and token")
	}
	if p.Interval < minProbeInterval {
		return invalid("probe.interval", "probe interval must be at least %s, got %s", minProbeInterval, p.Interval)
	}
	return nil
}
