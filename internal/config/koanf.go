// Package config provides internal configuration loading and processing.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/simblock-app/simblock/pkg/config"
)

// ErrInvalidPermissions is returned when config file has insecure permissions.
var ErrInvalidPermissions = errors.New("config file has insecure permissions")

const (
	// GlobalConfigDir is the directory name for global configuration.
	GlobalConfigDir = ".simblock"

	// GlobalConfigFile is the name of the global configuration file.
	GlobalConfigFile = "config.toml"

	// ConfigDirMode is the permission mode for the configuration directory.
	ConfigDirMode = 0o755

	// ConfigFileMode is the permission mode for configuration files.
	ConfigFileMode = 0o600
)

// Default configuration constants for koanf map defaults.
const (
	defaultIntervalStr = "6h"
)

// KoanfLoader handles configuration loading from multiple sources using koanf.
// Precedence order (highest to lowest):
// 1. CLI Flags
// 2. Environment Variables (SIMBLOCK_*)
// 3. Global Config (~/.simblock/config.toml)
// 4. Defaults
type KoanfLoader struct {
	k        *koanf.Koanf
	homeDir  string
	tomlOpts koanf.UnmarshalConf
}

// NewKoanfLoader creates a new KoanfLoader with the default home directory.
func NewKoanfLoader() (*KoanfLoader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get home directory")
	}

	return NewKoanfLoaderWithDir(homeDir), nil
}

// NewKoanfLoaderWithDir creates a new KoanfLoader with a custom home
// directory (for testing).
func NewKoanfLoaderWithDir(homeDir string) *KoanfLoader {
	return &KoanfLoader{
		k:       koanf.New("."),
		homeDir: homeDir,
		tomlOpts: koanf.UnmarshalConf{
			Tag:       "koanf",
			FlatPaths: false,
		},
	}
}

// Load loads configuration from all sources with precedence.
func (l *KoanfLoader) Load(flags map[string]any) (*config.Config, error) {
	// Reset koanf instance for fresh load
	l.k = koanf.New(".")

	// 1. Load defaults first (lowest priority)
	if err := l.k.Load(confmap.Provider(defaultsToMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	// 2. Global config: ~/.simblock/config.toml
	globalPath := l.GlobalConfigPath()
	if err := l.loadTOMLFile(globalPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load global config")
	}

	// 3. Environment variables: SIMBLOCK_*
	envOpt := env.Opt{
		Prefix:        "SIMBLOCK_",
		TransformFunc: l.envTransform,
	}

	if err := l.k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	// 4. CLI flags (highest priority)
	if len(flags) > 0 {
		if err := l.k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	// Unmarshal into config struct
	var cfg config.Config
	if err := l.k.UnmarshalWithConf("", &cfg, l.tomlOpts); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// defaultsToMap returns the default configuration as a koanf map.
func defaultsToMap() map[string]any {
	return map[string]any{
		"update.enabled":     true,
		"update.interval":    defaultIntervalStr,
		"update.notify_only": false,
		"update.product":     config.DefaultProduct,
		"update.owner":       config.DefaultOwner,
		"update.repo":        config.DefaultRepo,
	}
}

// loadTOMLFile loads a TOML configuration file with security checks.
func (l *KoanfLoader) loadTOMLFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	// Reject world-writable files
	if info.Mode().Perm()&0o002 != 0 {
		return errors.Wrapf(
			ErrInvalidPermissions,
			"%s is world-writable (mode: %s)",
			path,
			info.Mode().Perm(),
		)
	}

	return l.k.Load(file.Provider(path), tomlparser.Parser())
}

// envTransform transforms environment variable names to config paths.
// SIMBLOCK_UPDATE_NOTIFY__ONLY becomes update.notify_only; a double
// underscore preserves one literal underscore in a key.
func (*KoanfLoader) envTransform(key, value string) (string, any) {
	key = strings.TrimPrefix(key, "SIMBLOCK_")
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "__", "\x00")
	key = strings.ReplaceAll(key, "_", ".")
	key = strings.ReplaceAll(key, "\x00", "_")

	return key, value
}

// GlobalConfigPath returns the path to the global configuration file.
func (l *KoanfLoader) GlobalConfigPath() string {
	return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// HasGlobalConfig checks if a global configuration file exists.
func (l *KoanfLoader) HasGlobalConfig() bool {
	_, err := os.Stat(l.GlobalConfigPath())

	return err == nil
}
