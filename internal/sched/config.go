package sched

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"strconv"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

const (
	PacingVirtual  = "virtual"
	PacingRealtime = "realtime"
)

// config mirrors config.yml
type Config struct {
	SampleRate   int     `yaml:"sample_rate"`   // 22050 (by default)
	Pacing       string  `yaml:"pacing"`        // virtual (by default)
	LogLevel     string  `yaml:"log_level"`     // info (by default)
	TraceCSV     string  `yaml:"trace_csv"`     // empty = no trace
	UntilSeconds float64 `yaml:"until_seconds"` // 0 = run to quiescence
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		SampleRate: 22050,
		Pacing:     PacingVirtual,
		LogLevel:   "info",
	}
}

// Load reads YAML from fs and overrides defaults; empty path or a missing
// file = defaults only. An unreadable or malformed file also yields the
// defaults, together with an error saying why it was ignored.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, iofs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// ApplyEnv overrides fields from VSHRED_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("VSHRED_SAMPLE_RATE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.SampleRate = n
		}
	}
	if v, ok := lookup("VSHRED_PACING"); ok {
		c.Pacing = v
	}
	if v, ok := lookup("VSHRED_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("VSHRED_TRACE_CSV"); ok {
		c.TraceCSV = v
	}
	c.clamp()
}

// sanity clamps
func (c *Config) clamp() {
	if c.SampleRate <= 0 {
		c.SampleRate = 22050
	}
	c.Pacing = strings.ToLower(strings.TrimSpace(c.Pacing))
	if c.Pacing != PacingRealtime {
		c.Pacing = PacingVirtual
	}
	if c.UntilSeconds < 0 {
		c.UntilSeconds = 0
	}
}

// Level maps LogLevel onto slog; unknown names mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options turns the config into scheduler options. clock may be nil.
func (c Config) Options(clock WallClock) []Option {
	if c.Pacing == PacingRealtime {
		return []Option{WithPacer(NewRealTimePacer(int64(c.SampleRate), clock))}
	}
	return []Option{WithPacer(VirtualPacer{})}
}
