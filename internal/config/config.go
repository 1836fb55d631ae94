// Package config reads and writes reconcile.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML carries human-readable values like
// "3h" or "5m".
type Duration time.Duration

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses time.Duration notation.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the top-level reconcile.yaml configuration.
type Config struct {
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Fetch          FetchConfig          `yaml:"fetch"`
	Sources        SourcesConfig        `yaml:"sources"`
}

// ReconciliationConfig tunes the windowing and matching rules.
type ReconciliationConfig struct {
	ClockOffset              Duration `yaml:"clock_offset"`
	MatchTolerance           Duration `yaml:"match_tolerance"`
	IncludeUnmatchedInTotals bool     `yaml:"include_unmatched_in_totals"`
}

// FetchConfig bounds pressure on the external record source.
type FetchConfig struct {
	MaxWorkers int      `yaml:"max_workers"`
	Timeout    Duration `yaml:"timeout"`
	// RatePerSec caps fetch calls per second; 0 disables the limiter.
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// SourcesConfig selects where raw records come from.
type SourcesConfig struct {
	Kind        string `yaml:"kind"` // "csv" or "postgres"
	IdexCSV     string `yaml:"idex_csv,omitempty"`
	ExchangeCSV string `yaml:"exchange_csv,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// Load reads a reconcile.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Reconciliation: ReconciliationConfig{
			ClockOffset:              Duration(3 * time.Hour),
			MatchTolerance:           Duration(5 * time.Minute),
			IncludeUnmatchedInTotals: true,
		},
		Fetch: FetchConfig{
			MaxWorkers: 4,
			Timeout:    Duration(30 * time.Second),
		},
		Sources: SourcesConfig{
			Kind:        "csv",
			IdexCSV:     "exports/idex",
			ExchangeCSV: "exports/exchange",
		},
	}
}
