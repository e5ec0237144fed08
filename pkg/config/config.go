// Package config loads the dozefs configuration: the managed root directory
// and logging behavior.
//
// Sources, highest precedence first:
//  1. Environment variables (DOZEFS_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete dozefs configuration.
type Config struct {
	// Root is the managed root directory holding all pools. It is threaded
	// explicitly into every dataset constructor; the engine itself never
	// reads the environment.
	Root string `mapstructure:"root" validate:"required"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is console or json.
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// Load reads configuration from file, environment, and defaults. An empty
// configPath uses the default search location; a missing config file is
// fine, defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper registers defaults, environment mapping, and the config file
// location. Defaults are registered with viper so environment overrides of
// otherwise-unset keys are picked up by Unmarshal.
func setupViper(v *viper.Viper, configPath string) {
	v.SetDefault("root", defaultRoot())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// DOZEFS_ROOT, DOZEFS_LOGGING_LEVEL, ...
	v.SetEnvPrefix("DOZEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			// SetConfigFile bypasses viper's not-found type.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
}

// defaultRoot returns ~/.dozefs, falling back to a relative directory when
// the home directory cannot be determined.
func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dozefs"
	}
	return filepath.Join(home, ".dozefs")
}

// configDir returns $XDG_CONFIG_HOME/dozefs or ~/.config/dozefs.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dozefs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "dozefs")
}
