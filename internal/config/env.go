package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/autopipe/internal/logfields"
)

// Environment variables recognised on top of the config file.
const (
	EnvDefaultJobName = "JENKINS_JOB_NAME"
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvListenAddr     = "AUTOPIPE_LISTEN_ADDR"
	EnvLogLevel       = "AUTOPIPE_LOG_LEVEL"
)

// envFiles in precedence order. godotenv never overrides a variable that is already set, so
// the first file to define a key wins and the process environment beats both.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads the env files that exist. A file that cannot be parsed is skipped with a warning.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Ignoring unreadable env file", slog.String("file", name), logfields.Error(err))
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := envValue(EnvDefaultJobName); v != "" {
		cfg.CI.DefaultJobName = v
	}
	if v := envValue(EnvGeminiAPIKey); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := envValue(EnvListenAddr); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := envValue(EnvLogLevel); v != "" {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
