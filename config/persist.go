package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rivcore/riv/errors"
)

const defaultFilePermissions = 0o644

// Save writes cfg to path as TOML, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create config directory for %s", path)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config as TOML")
	}

	if err := os.WriteFile(path, []byte(buf.String()), defaultFilePermissions); err != nil {
		return errors.Wrapf(err, "write config file %s", path)
	}
	return nil
}

// LoadFromFile reads configuration from a specific TOML file, applying
// defaults for any key the file omits.
func LoadFromFile(path string) (*Config, error) {
	v := GetViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config from %s", path)
	}
	return &cfg, nil
}
