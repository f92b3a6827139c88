// Package config loads worldstate settings from config.yaml and
// WORLDSTATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/internal/logging"
	"github.com/mesh-intelligence/worldstate/internal/orchestrator"
	"github.com/mesh-intelligence/worldstate/internal/paths"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. WORLDSTATE_CACHE_TTL.
const EnvPrefix = "WORLDSTATE"

// Config keys.
const (
	KeyBackend         = "backend"
	KeyDataDir         = "data_dir"
	KeyCacheTTL        = "cache.ttl"
	KeyCacheMaxSize    = "cache.max_size"
	KeyAutoApply       = "orchestrator.auto_apply"
	KeyStrictMode      = "orchestrator.strict_mode"
	KeyMemoryThreshold = "orchestrator.memory_threshold"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// ErrInvalidConfig wraps every validation failure from Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// CacheConfig is the cache section of config.yaml.
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxSize int           `yaml:"max_size" mapstructure:"max_size"`
}

// OrchestratorConfig is the orchestrator section of config.yaml.
type OrchestratorConfig struct {
	AutoApply       bool `yaml:"auto_apply" mapstructure:"auto_apply"`
	StrictMode      bool `yaml:"strict_mode" mapstructure:"strict_mode"`
	MemoryThreshold int  `yaml:"memory_threshold" mapstructure:"memory_threshold"`
}

// LogConfig is the log section of config.yaml.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Config is the full set of settings.
type Config struct {
	Backend      string             `yaml:"backend" mapstructure:"backend"`
	DataDir      string             `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	orch := orchestrator.DefaultConfig()
	return Config{
		Backend: types.BackendSQLite,
		Cache: CacheConfig{
			TTL:     cache.DefaultTTL,
			MaxSize: cache.DefaultMaxSize,
		},
		Orchestrator: OrchestratorConfig{
			AutoApply:       orch.AutoApply,
			StrictMode:      orch.StrictMode,
			MemoryThreshold: orch.MemoryThreshold,
		},
		Log: LogConfig{Level: "info", Format: logging.FormatText},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBackend, d.Backend)
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyCacheTTL, d.Cache.TTL)
	v.SetDefault(KeyCacheMaxSize, d.Cache.MaxSize)
	v.SetDefault(KeyAutoApply, d.Orchestrator.AutoApply)
	v.SetDefault(KeyStrictMode, d.Orchestrator.StrictMode)
	v.SetDefault(KeyMemoryThreshold, d.Orchestrator.MemoryThreshold)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
}

// Load reads config.yaml from configDir. A missing directory or file is
// not an error: defaults and environment overrides still apply.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigFile(paths.ConfigFile(configDir))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isMissing(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Backend: v.GetString(KeyBackend),
		DataDir: v.GetString(KeyDataDir),
		Cache: CacheConfig{
			TTL:     v.GetDuration(KeyCacheTTL),
			MaxSize: v.GetInt(KeyCacheMaxSize),
		},
		Orchestrator: OrchestratorConfig{
			AutoApply:       v.GetBool(KeyAutoApply),
			StrictMode:      v.GetBool(KeyStrictMode),
			MemoryThreshold: v.GetInt(KeyMemoryThreshold),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := c.Store("").Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive", ErrInvalidConfig)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("%w: cache.max_size must be positive", ErrInvalidConfig)
	}
	if t := c.Orchestrator.MemoryThreshold; t < types.MinImportance || t > types.MaxImportance {
		return fmt.Errorf("%w: orchestrator.memory_threshold %d outside [%d, %d]",
			ErrInvalidConfig, t, types.MinImportance, types.MaxImportance)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Store returns the store config, using dataDir when it is set.
func (c Config) Store(dataDir string) types.Config {
	if dataDir == "" {
		dataDir = c.DataDir
	}
	return types.Config{Backend: c.Backend, DataDir: dataDir}
}

// CacheOptions maps the cache section.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{TTL: c.Cache.TTL, MaxSize: c.Cache.MaxSize}
}

// OrchestratorOptions maps the orchestrator section.
func (c Config) OrchestratorOptions() orchestrator.Config {
	return orchestrator.Config{
		AutoApply:       c.Orchestrator.AutoApply,
		StrictMode:      c.Orchestrator.StrictMode,
		MemoryThreshold: c.Orchestrator.MemoryThreshold,
	}
}

// WriteDefault creates configDir/config.yaml holding the default settings
// plus dataDir. An existing file is left untouched. It reports whether a
// file was written.
func WriteDefault(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := Default()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# worldstate configuration\n# Every key can be overridden by WORLDSTATE_<SECTION>_<KEY>.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
