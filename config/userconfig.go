package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// UserConfig is the JSON object the desktop UI persists. It is read and
// written wholesale; last writer wins, there is no partial merge.
type UserConfig map[string]interface{}

const userConfigName = "config.json"

// UserConfigPath returns the fixed per-user config location under the data dir.
func (c *Config) UserConfigPath() string {
	return filepath.Join(c.DataDir, userConfigName)
}

// ReadUserConfig loads the persisted user config. A missing file is not an
// error and yields an empty config.
func (c *Config) ReadUserConfig() (UserConfig, error) {
	data, err := os.ReadFile(c.UserConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return UserConfig{}, nil
		}
		return nil, errors.Wrap(err, "read user config")
	}

	var uc UserConfig
	if err := json.Unmarshal(data, &uc); err != nil {
		return nil, errors.Wrap(err, "parse user config")
	}
	if uc == nil {
		uc = UserConfig{}
	}
	return uc, nil
}

// WriteUserConfig replaces the persisted user config.
func (c *Config) WriteUserConfig(uc UserConfig) error {
	if uc == nil {
		uc = UserConfig{}
	}
	data, err := json.MarshalIndent(uc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode user config")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(c.UserConfigPath(), data, 0o644); err != nil {
		return errors.Wrap(err, "write user config")
	}
	return nil
}
