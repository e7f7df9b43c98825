package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

const exampleHeader = `# autopipe configuration
# Values of the form ${VAR} are expanded from the environment (.env files are loaded too).
# JENKINS_JOB_NAME, GEMINI_API_KEY and AUTOPIPE_LISTEN_ADDR override the matching settings.
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			Build()
	}

	example := Default()
	example.Generator.APIKey = "${GEMINI_API_KEY}"
	example.Metrics.Enabled = true
	example.Daemon.WatchConfig = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
