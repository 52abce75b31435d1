package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cuemby/leech/pkg/log"
)

// Default layouts used to validate DATE, TIME and DATETIME fields when the
// field config carries no explicit format. These are Go reference layouts.
const (
	DefaultDateFormat     = "2006-01-02"
	DefaultTimeFormat     = "15:04:05"
	DefaultDateTimeFormat = "2006-01-02 15:04:05"
)

// CompressionConfig controls zstd framing of patch blobs.
type CompressionConfig struct {
	Enable bool `toml:"enable" json:"enable"`
	Level  int  `toml:"level" json:"level"`
}

// TruncateConfig holds the optional block retention policy.
type TruncateConfig struct {
	// MaxBlocks caps the chain length; nil means unlimited.
	MaxBlocks *uint32 `toml:"max-blocks" json:"max-blocks"`
	// MaxAge is a duration string like "30s", "12h", "7d", "2w"; empty means unlimited.
	MaxAge string `toml:"max-age" json:"max-age"`
}

// FieldConfig describes a single column of a tracked table.
type FieldConfig struct {
	Name       string `toml:"name" json:"name"`
	Type       string `toml:"type" json:"type"`
	PrimaryKey bool   `toml:"primary-key" json:"primary-key"`
	// Format is a Go time layout overriding the default for DATE/TIME/DATETIME.
	Format string `toml:"format" json:"format"`
}

// TableConfig describes one tracked CSV source.
type TableConfig struct {
	Source string        `toml:"source" json:"source"`
	Header bool          `toml:"header" json:"header"`
	Fields []FieldConfig `toml:"fields" json:"fields"`
}

// Config is the validated configuration threaded through every operation.
type Config struct {
	WorkDir     string                  `toml:"-" json:"-"`
	Compression CompressionConfig       `toml:"compression" json:"compression"`
	Truncate    *TruncateConfig         `toml:"truncate" json:"truncate"`
	Tables      map[string]*TableConfig `toml:"tables" json:"tables"`
}

// FieldNames returns all column names in configured order.
func (t *TableConfig) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// PrimaryKey returns the primary-key column names in configured order.
func (t *TableConfig) PrimaryKey() []string {
	var names []string
	for _, f := range t.Fields {
		if f.PrimaryKey {
			names = append(names, f.Name)
		}
	}
	return names
}

// OrderedFields returns all columns with primary-key columns first, each group
// in configured order. This is the field layout used by snapshots and deltas.
func (t *TableConfig) OrderedFields() []FieldConfig {
	ordered := make([]FieldConfig, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.PrimaryKey {
			ordered = append(ordered, f)
		}
	}
	for _, f := range t.Fields {
		if !f.PrimaryKey {
			ordered = append(ordered, f)
		}
	}
	return ordered
}

// Load reads config.toml or config.json from workDir and validates it.
func Load(workDir string) (*Config, error) {
	tomlPath := filepath.Join(workDir, "config.toml")
	jsonPath := filepath.Join(workDir, "config.json")

	// Defaults survive decoding: both decoders leave absent fields untouched.
	cfg := Config{
		Compression: CompressionConfig{Enable: true, Level: 0},
	}
	switch {
	case fileExists(tomlPath):
		log.Logger.Debug().Str("path", tomlPath).Msg("Parsing config")
		if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", tomlPath, err)
		}
	case fileExists(jsonPath):
		log.Logger.Debug().Str("path", jsonPath).Msg("Parsing config")
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config '%s': %w", jsonPath, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", jsonPath, err)
		}
	default:
		return nil, fmt.Errorf("no config file found in '%s' (expected config.toml or config.json)", workDir)
	}

	cfg.WorkDir = workDir
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Logger.Info().Int("tables", len(cfg.Tables)).Msg("Initialized config")
	return &cfg, nil
}

func (c *Config) validate() error {
	for name, table := range c.Tables {
		if table.Source == "" {
			return fmt.Errorf("table '%s': source must be set", name)
		}
		if len(table.PrimaryKey()) == 0 {
			return fmt.Errorf("table '%s': at least one field must be marked as primary-key", name)
		}

		seen := make(map[string]bool, len(table.Fields))
		for i := range table.Fields {
			f := &table.Fields[i]
			if seen[f.Name] {
				return fmt.Errorf("table '%s': found duplicate field name '%s'", name, f.Name)
			}
			seen[f.Name] = true
			if f.Type == "" {
				f.Type = "TEXT"
			}
		}
	}

	if c.Truncate != nil {
		if c.Truncate.MaxBlocks != nil && *c.Truncate.MaxBlocks < 1 {
			return fmt.Errorf("truncate.max-blocks must be >= 1")
		}
		if c.Truncate.MaxAge != "" {
			if _, err := ParseDuration(c.Truncate.MaxAge); err != nil {
				return fmt.Errorf("truncate.max-age: %w", err)
			}
		}
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
)

// ParseDuration parses a duration string like "30s", "12h", "7d", "2w".
// Supported suffixes: s (seconds), m (minutes), h (hours), d (days), w (weeks).
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	number, suffix := s[:len(s)-1], s[len(s)-1:]
	value, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s'", s)
	}

	var seconds uint64
	switch suffix {
	case "s":
		seconds = value
	case "m":
		seconds = value * secondsPerMinute
	case "h":
		seconds = value * secondsPerHour
	case "d":
		seconds = value * secondsPerDay
	case "w":
		seconds = value * secondsPerWeek
	default:
		return 0, fmt.Errorf("invalid duration suffix '%s' in '%s'", suffix, s)
	}

	return time.Duration(seconds) * time.Second, nil
}
