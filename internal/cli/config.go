package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/drills/internal/paths"
	"github.com/mesh-intelligence/drills/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyDSN       = "dsn"
	cfgKeyCacheSize = "cache_size"
	cfgKeyLogLevel  = "log_level"

	envPrefix = "DRILLS"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	DSN       string `yaml:"dsn,omitempty"`
	CacheSize int    `yaml:"cache_size"`
	LogLevel  string `yaml:"log_level,omitempty"`
}

// loadConfig reads config.yaml from configDir using Viper. A missing file
// or directory is not an error; defaults apply. DRILLS_BACKEND, DRILLS_DSN,
// DRILLS_CACHE_SIZE and DRILLS_LOG_LEVEL override the file. data_dir is
// resolved through paths.ResolveDataDir instead.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyCacheSize, types.DefaultCacheSize)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeyDSN, cfgKeyCacheSize, cfgKeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// storeConfig builds the store configuration from the loaded config and the
// resolved data directory.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:   a.config.GetString(cfgKeyBackend),
		DataDir:   dataDir,
		DSN:       a.config.GetString(cfgKeyDSN),
		CacheSize: a.config.GetInt(cfgKeyCacheSize),
		LogLevel:  a.config.GetString(cfgKeyLogLevel),
	}
	return cfg, cfg.Validate()
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. It reports whether the file was written.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		Backend:   cfg.Backend,
		DataDir:   cfg.DataDir,
		DSN:       cfg.DSN,
		CacheSize: cfg.CacheSize,
		LogLevel:  cfg.LogLevel,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
