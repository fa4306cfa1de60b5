package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// Fiber tunes the core scheduler.
type Fiber struct {
	StackSize uint32 `mapstructure:"stack_size" default:"0"`
	Workers   int    `mapstructure:"workers" default:"4"`
	UseCaller bool   `mapstructure:"use_caller" default:"false"`
}

// Daemon tunes the daemon-mode supervisor.
type Daemon struct {
	RestartInterval time.Duration `mapstructure:"restart_interval" default:"1s"`
}

// Log tunes the zap logger built by internal/logging.
type Log struct {
	Level  string   `mapstructure:"level" default:"info"`
	Format string   `mapstructure:"format" default:"json"`
	Sinks  []string `mapstructure:"sinks" default:"stdout"`
}

// Configuration is the root of corofiberd's YAML configuration.
type Configuration struct {
	Fiber  Fiber  `mapstructure:"fiber"`
	Daemon Daemon `mapstructure:"daemon"`
	Log    Log    `mapstructure:"log"`
}

// Load reads configuration from path (if non-empty) with environment
// variable overrides (COROFIBERD_FIBER_WORKERS, etc.), falling back to
// struct-tag defaults for anything unset.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix("corofiberd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"fiber.stack_size", "fiber.workers", "fiber.use_caller",
		"daemon.restart_interval",
		"log.level", "log.format", "log.sinks",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: set defaults: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Log.Sinks = normalizeSinks(cfg.Log.Sinks)
	return cfg, nil
}

// normalizeSinks coerces an empty or unset sink list to the default
// single-sink configuration. Every branch returns a populated slice --
// the source's LexicalCast<list<T>>/LexicalCast<unordered_map<K,V>> both
// have a branch that falls through without a return, silently handing
// the caller a zero-value container; this is the one place in the
// module doing an equivalent string-to-container coercion, so it is
// written to never repeat that bug.
func normalizeSinks(sinks []string) []string {
	if len(sinks) == 0 {
		return []string{"stdout"}
	}
	return sinks
}
