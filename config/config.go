// Package config loads rivd's configuration: communicator listen
// port, provider name, log verbosity, and encoder worker tuning.
package config

import (
	"github.com/spf13/viper"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/listener"
)

// Config is the root configuration for a rivd process (spec.md §6).
type Config struct {
	Communicator CommunicatorConfig `mapstructure:"communicator"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Log          LogConfig          `mapstructure:"log"`
	Encoder      EncoderConfig      `mapstructure:"encoder"`
}

// CommunicatorConfig configures the TCP accept loop.
type CommunicatorConfig struct {
	Enabled bool   `mapstructure:"enabled"` // false mirrors --noipcomm
	Port    int    `mapstructure:"port"`    // default 52000
	Bind    string `mapstructure:"bind"`    // interface address, "" = all
}

// ProviderConfig configures the default provider exposed by rivd.
type ProviderConfig struct {
	Name string `mapstructure:"name"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Verbosity int  `mapstructure:"verbosity"` // -v count, see logger.VerbosityToLevel
	JSON      bool `mapstructure:"json"`
}

// EncoderConfig tunes the per-stream encoder pipeline (spec.md §4.2).
type EncoderConfig struct {
	QueueDepth  int `mapstructure:"queue_depth"`  // advisory; the FIFO itself is unbounded
	MaxUnknownControlIDs int `mapstructure:"max_unknown_control_ids"`
}

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads rivd's configuration using Viper, merging defaults, an
// optional TOML file, and RIV_-prefixed environment variables.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// LoadWithViper loads configuration from a caller-supplied Viper
// instance, bypassing the global singleton (used by tests and by
// callers embedding riv in a larger application with their own
// configuration tree).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// Reset clears the cached configuration. Used by tests and by the
// config watcher before a reload.
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// GetViper returns the package's Viper instance for advanced access.
func GetViper() *viper.Viper {
	return initViper()
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetEnvPrefix("RIV")
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigName("rivd")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc/rivd")
	v.AddConfigPath("$HOME/.rivd")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			// A config file that exists but fails to read or parse is
			// not reported: like a missing one, it leaves the instance
			// running on defaults and environment variables.
			viperInstance = v
			return v
		}
	}

	viperInstance = v
	return v
}

// SetDefaults configures default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("communicator.enabled", true)
	v.SetDefault("communicator.port", listener.DefaultPort)
	v.SetDefault("communicator.bind", "")

	v.SetDefault("provider.name", "rivd")

	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.json", false)

	v.SetDefault("encoder.queue_depth", 4)
	v.SetDefault("encoder.max_unknown_control_ids", 10)
}
