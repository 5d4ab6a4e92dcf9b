package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ANALYTICS_CONFIG is set
//  3. env (prefix ANALYTICS_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ANALYTICS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: ANALYTICS_ADDR, ANALYTICS_CACHE_TTL_SECONDS, ...
	// Keys map to the koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("ANALYTICS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "analytics_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.CacheTTLSeconds <= 0 {
		return errors.New("cache_ttl_seconds must be positive")
	}
	if c.QueryTimeoutMS <= 0 {
		return errors.New("query_timeout_ms must be positive")
	}
	if c.PowerplayStart < 1 || c.PowerplayEnd < c.PowerplayStart {
		return errors.New("powerplay window is malformed")
	}
	if c.DeathStart < 1 || c.DeathEnd < c.DeathStart {
		return errors.New("death-overs window is malformed")
	}
	if c.AllottedOvers < c.DeathEnd {
		return errors.New("allotted_overs must cover the death-overs window")
	}
	if c.DefaultTopN <= 0 {
		return errors.New("default_top_n must be positive")
	}
	return nil
}
