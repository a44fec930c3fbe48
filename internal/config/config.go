// Package config loads the TOML file that drives the mirror CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/mirror"
)

// Defaults applied by Load when a key is absent.
const (
	DefaultJournal  = "mirror.db"
	DefaultLogLevel = "info"
)

type Config struct {
	Client  ClientConfig  `toml:"client"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Journal JournalConfig `toml:"journal"`
	Log     LogConfig     `toml:"log"`
}

type ClientConfig struct {
	Address string `toml:"address"`
}

type MirrorConfig struct {
	Descriptors string            `toml:"descriptors"`
	OnError     string            `toml:"on_error"`
	Paths       []mirror.PathSpec `toml:"paths"`
}

type JournalConfig struct {
	DB string `toml:"db"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Load reads, defaults and validates the file at path. Relative
// descriptor and journal paths are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	cfg.Mirror.Descriptors = relativeTo(dir, cfg.Mirror.Descriptors)
	if cfg.Journal.DB != ":memory:" {
		cfg.Journal.DB = relativeTo(dir, cfg.Journal.DB)
	}
	return cfg, nil
}

// Parse decodes TOML, applies defaults and validates. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mirror.OnError == "" {
		cfg.Mirror.OnError = mirror.FailFast.String()
	}
	if cfg.Journal.DB == "" {
		cfg.Journal.DB = DefaultJournal
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

// Validate checks a decoded config.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Client.Address) == "" {
		return fmt.Errorf("client.address is required")
	}
	if _, err := ir.ParseAddress(cfg.Client.Address); err != nil {
		return fmt.Errorf("client.address: %w", err)
	}
	if strings.TrimSpace(cfg.Mirror.Descriptors) == "" {
		return fmt.Errorf("mirror.descriptors is required")
	}
	if _, err := mirror.ParsePolicy(cfg.Mirror.OnError); err != nil {
		return fmt.Errorf("mirror.on_error: %w", err)
	}
	for i, p := range cfg.Mirror.Paths {
		if strings.TrimSpace(p.Path) == "" {
			return fmt.Errorf("mirror.paths[%d]: path is required", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("mirror.paths[%d]: %w", i, err)
		}
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Address parses client.address.
func (c Config) Address() (ir.Address, error) {
	return ir.ParseAddress(c.Client.Address)
}

// Policy parses mirror.on_error.
func (c Config) Policy() (mirror.Policy, error) {
	return mirror.ParsePolicy(c.Mirror.OnError)
}

// Level parses log.level.
func (c Config) Level() (slog.Level, error) {
	return ParseLevel(c.Log.Level)
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
