// Package config is the database's configuration surface: site/variable
// counts, per-variable default overrides, the data directory, and the
// log level, loadable from a TOML file the same way
// kv/tinykv-server/main.go loads its server config.
package config

import (
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

// Config is the full set of knobs needed to stand up a database.
type Config struct {
	SiteCount int            `toml:"site-count"`
	VarCount  int            `toml:"var-count"`
	Defaults  map[int]int    `toml:"-"`        // variable id -> override of the 10*i default; read by Load
	DataDir   string         `toml:"data-dir"` // empty means run fully in memory
	LogLevel  string         `toml:"log-level"`
}

// Default returns the reference configuration: 10 sites, 20 variables,
// in-memory storage, info-level logging.
func Default() *Config {
	return &Config{
		SiteCount: 10,
		VarCount:  20,
		Defaults:  map[int]int{},
		DataDir:   "",
		LogLevel:  "info",
	}
}

// Load reads a TOML config file, starting from Default() so a file only
// needs to override what it cares about.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Annotatef(err, "config: decode %s", path)
	}
	// TOML table keys are strings; [defaults] keys are converted to variable ids here.
	var raw struct {
		Defaults map[string]int `toml:"defaults"`
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Annotatef(err, "config: decode %s", path)
	}
	for key, value := range raw.Defaults {
		v, err := strconv.Atoi(key)
		if err != nil {
			return nil, newConfigError("default override key %q is not a variable id", key)
		}
		cfg.Defaults[v] = value
	}
	return cfg, nil
}

// Validate reports a ConfigError if cfg cannot be used to construct a
// database.
func (c *Config) Validate() error {
	if c.SiteCount <= 0 {
		return newConfigError("site-count must be positive, got %d", c.SiteCount)
	}
	if c.VarCount <= 0 {
		return newConfigError("var-count must be positive, got %d", c.VarCount)
	}
	for v := range c.Defaults {
		if v < 1 || v > c.VarCount {
			return newConfigError("default override for x%d is out of range [1,%d]", v, c.VarCount)
		}
	}
	return nil
}

// ConfigError reports a problem with the supplied configuration, as
// opposed to a malformed command in a running session (InputError, in
// internal/coordinator).
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

func newConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{err: errors.Errorf(format, args...)}
}
