// Package config defines the engine configuration and its loading hooks.
//
// All tunables the engine reacts to live here as named options: cache TTL,
// the format's overs windows, leaderboard truncation, query timeouts. Code
// elsewhere must not carry these as scattered literals.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the directory holding the sqlite database file.
	DataDir string `koanf:"data_dir"`

	// CacheTTLSeconds bounds the age of memoized results.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// QueryTimeoutMS bounds a single store query.
	QueryTimeoutMS int `koanf:"query_timeout_ms"`

	// PowerplayStart and PowerplayEnd delimit the opening-overs window
	// (inclusive, 1-based).
	PowerplayStart int `koanf:"powerplay_start"`
	PowerplayEnd   int `koanf:"powerplay_end"`

	// DeathStart and DeathEnd delimit the closing-overs window
	// (inclusive, 1-based).
	DeathStart int `koanf:"death_start"`
	DeathEnd   int `koanf:"death_end"`

	// AllottedOvers is the format's full innings allotment. It substitutes
	// the denominator for innings ended early by an all-out.
	AllottedOvers int `koanf:"allotted_overs"`

	// DefaultTopN caps leaderboard-style outputs when the caller does not
	// ask for a limit.
	DefaultTopN int `koanf:"default_top_n"`

	// RateLimitPerMin caps requests per client IP on the HTTP surface.
	RateLimitPerMin int `koanf:"rate_limit_per_min"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		DataDir:         "./data",
		CacheTTLSeconds: 3600,
		QueryTimeoutMS:  5000,
		PowerplayStart:  1,
		PowerplayEnd:    6,
		DeathStart:      16,
		DeathEnd:        20,
		AllottedOvers:   20,
		DefaultTopN:     10,
		RateLimitPerMin: 60,
	}
}
