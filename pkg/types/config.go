package types

import "errors"

// Config holds backend selection and parameters for the store's Attach.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	DSN       string `json:"dsn" yaml:"dsn"`
	CacheSize int    `json:"cache_size" yaml:"cache_size"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultCacheSize is the number of exercise snapshots the store keeps warm.
const DefaultCacheSize = 128

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrDSNEmpty         = errors.New("dsn must not be empty for postgres")
	ErrCacheSizeInvalid = errors.New("cache size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.CacheSize < 0 {
		return ErrCacheSizeInvalid
	}
	return nil
}
